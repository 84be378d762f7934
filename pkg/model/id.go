package model

import "strconv"

// ParseID はパスパラメータのIDを解析する。
// 数字だけからなる文字列のみ受け付け、符号や空白を含むものは不正とする。
func ParseID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

package model

// User はユーザーディレクトリが管理するユーザー。
// IDはレコードストアが採番し、作成後は変更されない。
type User struct {
	// ID はユーザーの一意識別子。
	ID int64 `json:"id"`
	// Name はユーザー名。
	Name string `json:"name"`
	// Email は通知の宛先となるメールアドレス。空であってはならない。
	Email string `json:"email"`
}

// Post はPostサービスが管理する投稿。
// UserIDはUserへの緩い参照で、存在は保証されない。
type Post struct {
	// ID は投稿の一意識別子。
	ID int64 `json:"id"`
	// Title は投稿タイトル。通知メールの件名になる。
	Title string `json:"title"`
	// Content は投稿本文。通知メールの本文になる。
	Content string `json:"content"`
	// UserID は投稿者のユーザーID。
	UserID int64 `json:"userid"`
}

// NotificationRequest はPostサービスから通知サービスへ送る通知依頼。
// 採番済みの投稿IDは含まない。
type NotificationRequest struct {
	// Title は投稿タイトル。
	Title string `json:"title"`
	// Content は投稿本文。
	Content string `json:"content"`
	// UserID は通知先ユーザーのID。
	UserID int64 `json:"userid"`
}

// NotificationRequestOf は投稿から通知依頼を組み立てる。
func NotificationRequestOf(p Post) NotificationRequest {
	return NotificationRequest{
		Title:   p.Title,
		Content: p.Content,
		UserID:  p.UserID,
	}
}

// IDResponse は作成系エンドポイントのレスポンス。
type IDResponse struct {
	// ID は採番されたID。
	ID int64 `json:"id"`
}

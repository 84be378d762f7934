package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/nao1215/postnotify/pkg/httpclient"
	"github.com/nao1215/postnotify/pkg/model"
)

// ErrUserNotFound はユーザーディレクトリがユーザーを返さなかったことを表す。
var ErrUserNotFound = errors.New("user not found")

// UserDirectory はユーザーIDから宛先を解決する。
type UserDirectory interface {
	Lookup(ctx context.Context, userID int64) (model.User, error)
}

// HTTPUserDirectory はユーザーディレクトリサービスをHTTPで呼び出すUserDirectory。
type HTTPUserDirectory struct {
	client *httpclient.Client
}

// NewHTTPUserDirectory はHTTPUserDirectoryを生成する。
func NewHTTPUserDirectory(client *httpclient.Client) *HTTPUserDirectory {
	return &HTTPUserDirectory{client: client}
}

// Lookup は GET /users/<id> でユーザーを取得する。
// 2xx以外の応答はすべてErrUserNotFoundとして扱い、通信エラーはそのまま返す。
func (d *HTTPUserDirectory) Lookup(ctx context.Context, userID int64) (model.User, error) {
	var u model.User
	err := d.client.GetJSON(ctx, "/users/"+strconv.FormatInt(userID, 10), &u)
	if err != nil {
		if httpclient.IsStatus(err) {
			return model.User{}, fmt.Errorf("%w: %v", ErrUserNotFound, err)
		}
		return model.User{}, err
	}
	return u, nil
}

package handlers

import (
	"github.com/labstack/echo/v4"

	"kiroku/internal/apperr"
)

// 呼び出し元の識別は前段の認証基盤が行い、検証済みのユーザーIDを
// このヘッダーで渡してくる
const userIDHeader = "X-User-ID"

// ownerID はリクエストから呼び出し元のユーザーIDを取り出す
func ownerID(c echo.Context) (string, error) {
	id := c.Request().Header.Get(userIDHeader)
	if id == "" {
		return "", apperr.New(apperr.Unauthorized, "missing caller identity")
	}
	return id, nil
}

// errorJSON はエラー分類に応じたHTTPステータスでJSONを返す
func errorJSON(c echo.Context, err error) error {
	return c.JSON(apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

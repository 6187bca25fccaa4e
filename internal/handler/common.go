package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 綁定失敗一律回 400 並由呼叫端直接 return，
// handler 不需要分辨是哪一種綁定來源出錯
func bindFailed(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "Invalid request format",
	})
}

// BindJson 綁定 JSON body，失敗時已寫入 400 回應
func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		bindFailed(c)
		return err
	}
	return nil
}

// BindQuery 綁定 query string
func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		bindFailed(c)
		return err
	}
	return nil
}

// BindUri 綁定路徑參數
func BindUri(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindUri(obj); err != nil {
		bindFailed(c)
		return err
	}
	return nil
}

// @title Career Coach API
// @version 1.0
// @description AI 职业能力测评服务：按主题生成选择题，评分并给出改进建议。

// @contact.name API支持
// @contact.email support@example.com

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"career_coach_backend/cmd"
	"os"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

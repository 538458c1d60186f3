package controller

import (
	"career_coach_backend/internal/model"
	"career_coach_backend/internal/service"
	"career_coach_backend/internal/util"
	"career_coach_backend/pkg/logger"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AssessmentController struct {
	Service *service.AssessmentService
	Scoring *service.ScoringService
	Reports *service.ReportService
}

func NewAssessmentController(svc *service.AssessmentService, scoring *service.ScoringService, reports *service.ReportService) *AssessmentController {
	return &AssessmentController{Service: svc, Scoring: scoring, Reports: reports}
}

// SubmitRequest 提交答案，key 为题目下标
// swagger:model SubmitRequest
type SubmitRequest struct {
	Answers map[int]string `json:"answers"`
}

// hideAnswers 作答中的测评不返回正确答案
func hideAnswers(a *model.Assessment) *model.Assessment {
	if a.IsCompleted() {
		return a
	}
	view := *a
	view.Questions = make([]model.Question, len(a.Questions))
	for i, q := range a.Questions {
		q.Answer = ""
		view.Questions[i] = q
	}
	return &view
}

// @Summary 生成测评
// @Description 调用大模型生成选择题并保存为新的测评
// @Tags 测评
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateAssessmentRequest true "主题、难度、题目数量(5-20)"
// @Success 201 {object} util.Response{data=model.Assessment}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 502 {object} util.Response "大模型生成失败"
// @Router /assessments [post]
func (c *AssessmentController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.CreateAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	a, err := c.Service.Create(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, hideAnswers(a))
}

// @Summary 我的测评列表
// @Description 按创建时间倒序；传 page 时分页
// @Tags 测评
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /assessments [get]
func (c *AssessmentController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	if pageStr := ctx.Query("page"); pageStr != "" {
		page, _ := strconv.Atoi(pageStr)
		limit, err := strconv.Atoi(ctx.Query("limit"))
		if err != nil {
			limit = service.DefaultPageLimit
		}
		page, limit = service.PageParams(page, limit)

		list, total, err := c.Service.ListByUserPage(ctx.Request.Context(), claims.UserID, page, limit)
		if err != nil {
			respondError(ctx, err)
			return
		}
		util.Success(ctx, util.PageResponse{List: hideAll(list), Total: total, Page: page, Limit: limit})
		return
	}

	list, err := c.Service.ListByUser(ctx.Request.Context(), claims.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, hideAll(list))
}

func hideAll(list []model.Assessment) []*model.Assessment {
	out := make([]*model.Assessment, 0, len(list))
	for i := range list {
		out = append(out, hideAnswers(&list[i]))
	}
	return out
}

// @Summary 测评详情
// @Tags 测评
// @Produce json
// @Security BearerAuth
// @Param id path string true "测评ID"
// @Success 200 {object} util.Response{data=model.Assessment}
// @Failure 404 {object} util.Response
// @Router /assessments/{id} [get]
func (c *AssessmentController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	a, err := c.Service.GetOwned(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, hideAnswers(a))
}

// @Summary 提交答案并评分
// @Description 未作答的题目按空答案计分；每个测评只能评分一次
// @Tags 测评
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "测评ID"
// @Param body body SubmitRequest true "答案"
// @Success 200 {object} util.Response{data=service.ScoreResult}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "已完成或正在评分"
// @Failure 502 {object} util.Response "改进建议生成失败"
// @Router /assessments/{id}/submit [post]
func (c *AssessmentController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	a, err := c.Service.GetOwned(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	for idx := range req.Answers {
		if idx < 0 || idx >= len(a.Questions) {
			util.BadRequest(ctx, fmt.Sprintf("answer index %d out of range", idx))
			return
		}
	}

	result, err := c.Scoring.Score(ctx.Request.Context(), a.ID, req.Answers)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 测评报告
// @Description format=markdown 时返回 markdown 文本
// @Tags 测评
// @Produce json
// @Produce text/markdown
// @Security BearerAuth
// @Param id path string true "测评ID"
// @Param format query string false "json 或 markdown"
// @Success 200 {object} util.Response{data=service.Report}
// @Failure 409 {object} util.Response "测评未完成"
// @Router /assessments/{id}/report [get]
func (c *AssessmentController) Report(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	a, err := c.Service.GetOwned(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	report, err := c.Reports.Build(a)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if ctx.Query("format") == "markdown" {
		ctx.Data(http.StatusOK, util.MimeMarkdown, []byte(c.Reports.Markdown(report)))
		return
	}
	util.Success(ctx, report)
}

// @Summary 导出测评报告
// @Description 生成 markdown 报告并上传到对象存储
// @Tags 测评
// @Produce json
// @Security BearerAuth
// @Param id path string true "测评ID"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response "测评未完成"
// @Router /assessments/{id}/report/export [post]
func (c *AssessmentController) ExportReport(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	a, err := c.Service.GetOwned(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	url, err := c.Reports.Export(ctx.Request.Context(), a)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"url": url})
}

// @Summary 删除测评
// @Tags 测评
// @Produce json
// @Security BearerAuth
// @Param id path string true "测评ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /assessments/{id} [delete]
func (c *AssessmentController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	// 归属校验在这里完成，存储层不检查
	a, err := c.Service.GetOwned(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	if err := c.Service.Delete(ctx.Request.Context(), a.ID); err != nil {
		respondError(ctx, err)
		return
	}
	// 报告文件清理失败不影响删除结果
	if err := c.Reports.Remove(ctx.Request.Context(), a); err != nil {
		logger.Log.Warn("Failed to remove exported report", zap.String("assessmentId", a.ID), zap.Error(err))
	}
	util.Success(ctx, gin.H{"id": a.ID})
}

// @Summary 测评状态统计
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /admin/assessments/stats [get]
func (c *AssessmentController) Stats(ctx *gin.Context) {
	counts, err := c.Service.Repo.CountByStatus(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}

	stats := gin.H{string(model.StatusInProgress): int64(0), string(model.StatusCompleted): int64(0)}
	for _, row := range counts {
		stats[string(row.Status)] = row.Count
	}
	util.Success(ctx, stats)
}

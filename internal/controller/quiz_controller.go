package controller

import (
	"errors"
	"langquiz_backend/internal/service"
	"langquiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Quiz *service.QuizService
}

func NewQuizController(quiz *service.QuizService) *QuizController {
	return &QuizController{Quiz: quiz}
}

// ListCategories godoc
// @Summary 获取已发布的测试列表
// @Tags 语言测试
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.TestCategory}
// @Router /api/language-tests [get]
func (c *QuizController) ListCategories(ctx *gin.Context) {
	categories, err := c.Quiz.ListCategories(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, categories)
}

// GetCategory godoc
// @Summary 测试预览
// @Tags 语言测试
// @Produce  json
// @Param   id path int true "测试ID"
// @Success 200 {object} util.Response{data=model.TestCategory}
// @Failure 404 {object} util.Response
// @Router /api/language-tests/{id} [get]
func (c *QuizController) GetCategory(ctx *gin.Context) {
	id, ok := util.ParseID(ctx.Param("id"))
	if !ok {
		util.NotFound(ctx)
		return
	}

	category, err := c.Quiz.GetPublishedCategory(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, util.ErrCategoryNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, category)
}

// StartTest godoc
// @Summary 生成测试题目
// @Description 登录用户优先获得未答对过的题目
// @Tags 语言测试
// @Produce  json
// @Param   id path int true "测试ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/language-tests/{id}/test [get]
func (c *QuizController) StartTest(ctx *gin.Context) {
	id, ok := util.ParseID(ctx.Param("id"))
	if !ok {
		util.NotFound(ctx)
		return
	}

	category, err := c.Quiz.GetPublishedCategory(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, util.ErrCategoryNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	questions, err := c.Quiz.SelectQuestions(ctx.Request.Context(), category.ID, util.UserIDFromContext(ctx), c.Quiz.QuestionsPerTest)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"category":  category,
		"questions": questions,
	})
}

// SubmitResult godoc
// @Summary 提交答案
// @Description 请求体为 {"题目ID": "答案ID" 或 ""}，返回每道题的正确答案ID
// @Tags 语言测试
// @Accept  json
// @Produce  json
// @Success 200 {object} object "{"data": {"题目ID": 正确答案ID}}"
// @Failure 400 {object} util.Response
// @Router /api/language-tests/result [post]
func (c *QuizController) SubmitResult(ctx *gin.Context) {
	var submission map[string]string
	if err := ctx.ShouldBindJSON(&submission); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Quiz.Score(ctx.Request.Context(), submission, util.UserIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, util.ErrMalformedInput) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Data(ctx, result)
}

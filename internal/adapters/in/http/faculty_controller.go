package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/facultyhub/faculty-status/internal/ports/in"
)

// FacultyController HTTP教师档案控制器
type FacultyController struct {
	facultyUseCase in.FacultyUseCase
}

// NewFacultyController 创建教师档案控制器
func NewFacultyController(facultyUseCase in.FacultyUseCase) *FacultyController {
	return &FacultyController{facultyUseCase: facultyUseCase}
}

// RegisterRoutes 注册路由
func (c *FacultyController) RegisterRoutes(r *gin.RouterGroup) {
	faculty := r.Group("/faculty")
	{
		faculty.POST("", c.Register)
		faculty.GET("", c.ListFaculty)
		faculty.GET("/:id", c.GetFaculty)
	}
}

// RegisterFacultyRequest 注册请求
type RegisterFacultyRequest struct {
	FacultyID      string `json:"faculty_id"`
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Department     string `json:"department" binding:"required"`
	OfficeLocation string `json:"office_location"`
	Phone          string `json:"phone"`
}

// Register 注册教师，初始状态为 Offline
func (c *FacultyController) Register(ctx *gin.Context) {
	var req RegisterFacultyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	faculty, err := c.facultyUseCase.Register(ctx.Request.Context(), &in.RegisterFacultyRequest{
		FacultyID:      req.FacultyID,
		Name:           req.Name,
		Email:          req.Email,
		Department:     req.Department,
		OfficeLocation: req.OfficeLocation,
		Phone:          req.Phone,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "faculty registered successfully",
		"faculty": faculty,
	})
}

// GetFaculty 查询单个教师档案
func (c *FacultyController) GetFaculty(ctx *gin.Context) {
	faculty, err := c.facultyUseCase.GetFaculty(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"faculty": faculty})
}

// ListFaculty 教师目录
func (c *FacultyController) ListFaculty(ctx *gin.Context) {
	list, err := c.facultyUseCase.ListFaculty(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"faculty": list, "count": len(list)})
}

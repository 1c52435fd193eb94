package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 讓 errors.Is / errors.As 可以看到原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，使包裝過的錯誤仍能匹配預定義錯誤
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap 以相同代碼與狀態包裝原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return NewError(e.Code, e.Message, e.Status, err)
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ToErrorResponse 將任意錯誤轉換為狀態碼與響應內容
func ToErrorResponse(err error, debug bool) (int, ErrorResponse) {
	// 綁定時讀到超過上限的請求體，不論外層包成什麼錯誤都回 413
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		resp := ErrorResponse{Code: ErrPayloadTooLarge.Code, Message: ErrPayloadTooLarge.Message}
		if debug {
			resp.Details = fmt.Sprintf("limit %d bytes", tooLarge.Limit)
		}
		return ErrPayloadTooLarge.Status, resp
	}

	var ce *CustomError
	if errors.As(err, &ce) {
		resp := ErrorResponse{Code: ce.Code, Message: ce.Message}
		if debug && ce.Err != nil {
			resp.Details = ce.Err.Error()
		}
		return ce.Status, resp
	}
	resp := ErrorResponse{Code: ErrCodeInternalError, Message: ErrInternalError.Message}
	if debug {
		resp.Details = err.Error()
	}
	return http.StatusInternalServerError, resp
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE" // 413

	// 服務器錯誤 (5xx)
	ErrCodeInternalError = "INTERNAL_ERROR" // 500

	// 業務錯誤
	ErrCodeRecipeNotFound      = "RECIPE_NOT_FOUND"
	ErrCodeIngredientNotFound  = "INGREDIENT_NOT_FOUND"
	ErrCodeStepNotFound        = "STEP_NOT_FOUND"
	ErrCodeStepHasNoTimer      = "STEP_HAS_NO_TIMER"
	ErrCodeTimerNotFound       = "TIMER_NOT_FOUND"
	ErrCodeStorage             = "STORAGE_ERROR"
	ErrCodeCatalogUnavailable  = "CATALOG_UNAVAILABLE"
	ErrCodeShoppingItemInvalid = "SHOPPING_ITEM_INVALID"
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)
	ErrPayloadTooLarge = NewError(ErrCodePayloadTooLarge, "請求內容過大", http.StatusRequestEntityTooLarge, nil)

	// 服務器錯誤
	ErrInternalError = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)

	// 業務錯誤
	ErrRecipeNotFound      = NewError(ErrCodeRecipeNotFound, "食譜不存在", http.StatusNotFound, nil)
	ErrIngredientNotFound  = NewError(ErrCodeIngredientNotFound, "食材不存在", http.StatusNotFound, nil)
	ErrStepNotFound        = NewError(ErrCodeStepNotFound, "步驟不存在", http.StatusNotFound, nil)
	ErrStepHasNoTimer      = NewError(ErrCodeStepHasNoTimer, "此步驟沒有計時", http.StatusBadRequest, nil)
	ErrTimerNotFound       = NewError(ErrCodeTimerNotFound, "沒有進行中的計時器", http.StatusNotFound, nil)
	ErrStorage             = NewError(ErrCodeStorage, "儲存服務錯誤", http.StatusServiceUnavailable, nil)
	ErrCatalogUnavailable  = NewError(ErrCodeCatalogUnavailable, "食譜目錄尚未載入", http.StatusServiceUnavailable, nil)
	ErrShoppingItemInvalid = NewError(ErrCodeShoppingItemInvalid, "無效的購物清單項目", http.StatusBadRequest, nil)
)

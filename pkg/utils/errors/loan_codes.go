package errors

// 贷款顾问服务代码: 21 (业务服务范围 20-79)
// 错误码格式: AABBCCC
// - AA: 21 (loan-advisor)
// - BB: 类别代码
// - CCC: 序号

var (
	// ErrLoanInvalidRequest 请求体缺失或格式错误，细节通过 WithDetails 返回。
	ErrLoanInvalidRequest = NewRequestErr(ServiceLoan, 1, "Invalid payload", "请求参数无效")

	// ErrLoanProductNotFound 引用的产品不存在。
	ErrLoanProductNotFound = NewNotFoundErr(ServiceLoan, 1, "Product not found", "产品不存在")

	// ErrLoanRateLimited 对话接口超出本地速率限制。
	ErrLoanRateLimited = NewRateLimitErr(ServiceLoan, 1, "Too many chat requests", "对话请求过于频繁")

	// ErrLoanUnexpected 未归类的内部错误。
	ErrLoanUnexpected = NewInternalErr(ServiceLoan, 1, "Internal server error", "服务器内部错误")

	// ErrLoanUpstreamFailure 模型后端调用失败或返回不可用结果。
	ErrLoanUpstreamFailure = NewNetworkErr(ServiceLoan, 1, "AI backend request failed", "AI 服务调用失败")

	// ErrLoanServiceUnavailable 模型凭据或配置缺失。
	ErrLoanServiceUnavailable = NewConfigErr(ServiceLoan, 1, "AI service not configured", "AI 服务未配置")
)

package faults

// userMessages maps each kind to a human-readable message shown in the UI.
// The table is plain data so another locale can be swapped in wholesale.
var userMessages = map[Kind]string{
	KindInvalidInput:       "Dữ liệu nhập không hợp lệ. Vui lòng kiểm tra lại.",
	KindValidationError:    "Dữ liệu không đúng định dạng yêu cầu.",
	KindNotFound:           "Không tìm thấy nội dung bạn yêu cầu.",
	KindNetworkError:       "Lỗi kết nối mạng. Vui lòng thử lại.",
	KindTimeout:            "Yêu cầu mất quá nhiều thời gian. Vui lòng thử lại.",
	KindConnectionRefused:  "Không thể kết nối tới máy chủ.",
	KindUnauthorized:       "Bạn cần đăng nhập để tiếp tục.",
	KindForbidden:          "Bạn không có quyền truy cập nội dung này.",
	KindTokenExpired:       "Phiên đăng nhập đã hết hạn. Vui lòng đăng nhập lại.",
	KindInvalidToken:       "Phiên đăng nhập không hợp lệ. Vui lòng đăng nhập lại.",
	KindServerError:        "Máy chủ gặp sự cố. Vui lòng thử lại sau.",
	KindServiceUnavailable: "Dịch vụ tạm thời không khả dụng. Vui lòng thử lại sau.",
	KindInternalError:      "Đã xảy ra lỗi hệ thống. Vui lòng thử lại sau.",
	KindRateLimited:        "Bạn thao tác quá nhanh. Vui lòng chờ một chút.",
	KindTooManyRequests:    "Quá nhiều yêu cầu. Vui lòng chờ một chút rồi thử lại.",
	KindAiError:            "Trợ lý AI gặp sự cố. Vui lòng thử lại.",
	KindInvalidPrompt:      "Câu hỏi không hợp lệ hoặc vi phạm chính sách nội dung.",
	KindModelNotFound:      "Mô hình AI không khả dụng.",
	KindAiTimeout:          "Trợ lý AI phản hồi quá chậm. Vui lòng thử lại.",
	KindParseError:         "Không thể đọc dữ liệu trả về.",
	KindInvalidData:        "Dữ liệu nhận được không hợp lệ.",
	KindDataCorruption:     "Dữ liệu đã bị hỏng. Vui lòng tải lại trang.",
	KindUnknownError:       "Đã xảy ra lỗi không xác định. Vui lòng thử lại.",
}

// recoverySuggestions maps each kind to 2-4 short actionable steps.
var recoverySuggestions = map[Kind][]string{
	KindInvalidInput: {
		"Kiểm tra lại các trường đã nhập",
		"Đảm bảo đúng định dạng yêu cầu",
	},
	KindValidationError: {
		"Kiểm tra lại dữ liệu đã nhập",
		"Xem hướng dẫn định dạng bên cạnh ô nhập",
	},
	KindNotFound: {
		"Kiểm tra lại đường dẫn",
		"Quay về trang chủ",
		"Tìm kiếm nội dung tương tự",
	},
	KindNetworkError: {
		"Kiểm tra kết nối internet",
		"Thử lại sau vài giây",
		"Chuyển sang mạng khác nếu có thể",
	},
	KindTimeout: {
		"Thử lại sau vài giây",
		"Kiểm tra tốc độ mạng",
	},
	KindConnectionRefused: {
		"Kiểm tra kết nối internet",
		"Thử lại sau ít phút",
	},
	KindUnauthorized: {
		"Đăng nhập vào tài khoản của bạn",
		"Kiểm tra email và mật khẩu",
	},
	KindForbidden: {
		"Liên hệ quản trị viên để được cấp quyền",
		"Đăng nhập bằng tài khoản khác",
	},
	KindTokenExpired: {
		"Đăng nhập lại",
		"Bật tính năng ghi nhớ đăng nhập",
	},
	KindInvalidToken: {
		"Đăng xuất rồi đăng nhập lại",
		"Xoá bộ nhớ đệm của trình duyệt",
	},
	KindServerError: {
		"Thử lại sau vài phút",
		"Tải lại trang",
		"Báo lỗi nếu sự cố kéo dài",
	},
	KindServiceUnavailable: {
		"Thử lại sau vài phút",
		"Kiểm tra trang thông báo bảo trì",
	},
	KindInternalError: {
		"Tải lại trang",
		"Thử lại sau vài phút",
	},
	KindRateLimited: {
		"Chờ một phút rồi thử lại",
		"Giảm tần suất thao tác",
	},
	KindTooManyRequests: {
		"Chờ một phút rồi thử lại",
		"Đóng bớt các tab đang mở",
	},
	KindAiError: {
		"Thử lại với câu hỏi ngắn gọn hơn",
		"Thử lại sau vài giây",
	},
	KindInvalidPrompt: {
		"Viết lại câu hỏi rõ ràng hơn",
		"Tránh nội dung vi phạm chính sách",
	},
	KindModelNotFound: {
		"Thử lại sau ít phút",
		"Chọn chế độ AI khác nếu có",
	},
	KindAiTimeout: {
		"Thử lại với yêu cầu ngắn hơn",
		"Chờ vài giây rồi gửi lại",
	},
	KindParseError: {
		"Tải lại trang",
		"Thử lại thao tác",
	},
	KindInvalidData: {
		"Tải lại trang",
		"Xoá bộ nhớ đệm rồi thử lại",
	},
	KindDataCorruption: {
		"Tải lại trang",
		"Xoá dữ liệu cục bộ của ứng dụng",
		"Báo lỗi cho đội hỗ trợ",
	},
	KindUnknownError: {
		"Thử lại thao tác",
		"Tải lại trang",
	},
}

// UserMessage returns the localized message for a kind. Unmapped kinds fall
// back to the unknown-error message.
func UserMessage(kind Kind) string {
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	return userMessages[KindUnknownError]
}

// RecoverySuggestions returns short actionable steps for a kind.
func RecoverySuggestions(kind Kind) []string {
	if steps, ok := recoverySuggestions[kind]; ok {
		return steps
	}
	return recoverySuggestions[KindUnknownError]
}

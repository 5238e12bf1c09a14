package exchange

const (
	// DefaultDigits 无法获取标的详情时的价格精度
	DefaultDigits int32 = 5

	// SpotDigits cTrader 报价固定为 1/100000
	SpotDigits int32 = 5
)

type Symbol struct {
	// ID 交易商标的ID
	ID int64
	// Name 标的名称
	Name string
	// Exchange 交易商
	Exchange string
	// Enabled 是否可交易
	Enabled bool
	// Description 描述
	Description string
	// Digits 价格精度
	Digits int32
}

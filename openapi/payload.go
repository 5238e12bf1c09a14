package openapi

import "strconv"

// PayloadType Open API 消息类型
type PayloadType int

const (
	PayloadHeartbeatEvent PayloadType = 51

	PayloadApplicationAuthReq            PayloadType = 2100
	PayloadApplicationAuthRes            PayloadType = 2101
	PayloadAccountAuthReq                PayloadType = 2102
	PayloadAccountAuthRes                PayloadType = 2103
	PayloadSymbolsListReq                PayloadType = 2114
	PayloadSymbolsListRes                PayloadType = 2115
	PayloadSymbolByIDReq                 PayloadType = 2116
	PayloadSymbolByIDRes                 PayloadType = 2117
	PayloadSubscribeSpotsReq             PayloadType = 2127
	PayloadSubscribeSpotsRes             PayloadType = 2128
	PayloadUnsubscribeSpotsReq           PayloadType = 2129
	PayloadUnsubscribeSpotsRes           PayloadType = 2130
	PayloadSpotEvent                     PayloadType = 2131
	PayloadGetTrendbarsReq               PayloadType = 2137
	PayloadGetTrendbarsRes               PayloadType = 2138
	PayloadErrorRes                      PayloadType = 2142
	PayloadAccountsTokenInvalidatedEvent PayloadType = 2147
	PayloadClientDisconnectEvent         PayloadType = 2148
	PayloadGetAccountsByAccessTokenReq   PayloadType = 2149
	PayloadGetAccountsByAccessTokenRes   PayloadType = 2150
	PayloadRefreshTokenReq               PayloadType = 2173
	PayloadRefreshTokenRes               PayloadType = 2174
)

var payloadNames = map[PayloadType]string{
	PayloadHeartbeatEvent:                "HEARTBEAT_EVENT",
	PayloadApplicationAuthReq:            "APPLICATION_AUTH_REQ",
	PayloadApplicationAuthRes:            "APPLICATION_AUTH_RES",
	PayloadAccountAuthReq:                "ACCOUNT_AUTH_REQ",
	PayloadAccountAuthRes:                "ACCOUNT_AUTH_RES",
	PayloadSymbolsListReq:                "SYMBOLS_LIST_REQ",
	PayloadSymbolsListRes:                "SYMBOLS_LIST_RES",
	PayloadSymbolByIDReq:                 "SYMBOL_BY_ID_REQ",
	PayloadSymbolByIDRes:                 "SYMBOL_BY_ID_RES",
	PayloadSubscribeSpotsReq:             "SUBSCRIBE_SPOTS_REQ",
	PayloadSubscribeSpotsRes:             "SUBSCRIBE_SPOTS_RES",
	PayloadUnsubscribeSpotsReq:           "UNSUBSCRIBE_SPOTS_REQ",
	PayloadUnsubscribeSpotsRes:           "UNSUBSCRIBE_SPOTS_RES",
	PayloadSpotEvent:                     "SPOT_EVENT",
	PayloadGetTrendbarsReq:               "GET_TRENDBARS_REQ",
	PayloadGetTrendbarsRes:               "GET_TRENDBARS_RES",
	PayloadErrorRes:                      "ERROR_RES",
	PayloadAccountsTokenInvalidatedEvent: "ACCOUNTS_TOKEN_INVALIDATED_EVENT",
	PayloadClientDisconnectEvent:         "CLIENT_DISCONNECT_EVENT",
	PayloadGetAccountsByAccessTokenReq:   "GET_ACCOUNTS_BY_ACCESS_TOKEN_REQ",
	PayloadGetAccountsByAccessTokenRes:   "GET_ACCOUNTS_BY_ACCESS_TOKEN_RES",
	PayloadRefreshTokenReq:               "REFRESH_TOKEN_REQ",
	PayloadRefreshTokenRes:               "REFRESH_TOKEN_RES",
}

func (p PayloadType) String() string {
	if n, ok := payloadNames[p]; ok {
		return n
	}
	return "PAYLOAD_" + strconv.Itoa(int(p))
}

// Payload 可发送的消息体
type Payload interface {
	PayloadType() PayloadType
}

// TrendbarPeriod K线周期
type TrendbarPeriod int

const (
	PeriodM1  TrendbarPeriod = 1
	PeriodM2  TrendbarPeriod = 2
	PeriodM3  TrendbarPeriod = 3
	PeriodM4  TrendbarPeriod = 4
	PeriodM5  TrendbarPeriod = 5
	PeriodM10 TrendbarPeriod = 6
	PeriodM15 TrendbarPeriod = 7
	PeriodM30 TrendbarPeriod = 8
	PeriodH1  TrendbarPeriod = 9
	PeriodH4  TrendbarPeriod = 10
	PeriodH12 TrendbarPeriod = 11
	PeriodD1  TrendbarPeriod = 12
	PeriodW1  TrendbarPeriod = 13
	PeriodMN1 TrendbarPeriod = 14
)

type HeartbeatEvent struct{}

func (HeartbeatEvent) PayloadType() PayloadType { return PayloadHeartbeatEvent }

type ApplicationAuthReq struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

func (ApplicationAuthReq) PayloadType() PayloadType { return PayloadApplicationAuthReq }

type AccountAuthReq struct {
	CtidTraderAccountID int64  `json:"ctidTraderAccountId"`
	AccessToken         string `json:"accessToken"`
}

func (AccountAuthReq) PayloadType() PayloadType { return PayloadAccountAuthReq }

type AccountAuthRes struct {
	CtidTraderAccountID int64 `json:"ctidTraderAccountId"`
}

type GetAccountListByAccessTokenReq struct {
	AccessToken string `json:"accessToken"`
}

func (GetAccountListByAccessTokenReq) PayloadType() PayloadType {
	return PayloadGetAccountsByAccessTokenReq
}

type CtidTraderAccount struct {
	CtidTraderAccountID int64  `json:"ctidTraderAccountId"`
	IsLive              bool   `json:"isLive"`
	TraderLogin         int64  `json:"traderLogin"`
	BrokerTitleShort    string `json:"brokerTitleShort"`
}

type GetAccountListByAccessTokenRes struct {
	AccessToken       string              `json:"accessToken"`
	PermissionScope   string              `json:"permissionScope"`
	CtidTraderAccount []CtidTraderAccount `json:"ctidTraderAccount"`
}

type SymbolsListReq struct {
	CtidTraderAccountID    int64 `json:"ctidTraderAccountId"`
	IncludeArchivedSymbols bool  `json:"includeArchivedSymbols"`
}

func (SymbolsListReq) PayloadType() PayloadType { return PayloadSymbolsListReq }

// LightSymbol 品种列表里的精简信息
type LightSymbol struct {
	SymbolID    int64  `json:"symbolId"`
	SymbolName  string `json:"symbolName"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

type SymbolsListRes struct {
	CtidTraderAccountID int64         `json:"ctidTraderAccountId"`
	Symbol              []LightSymbol `json:"symbol"`
}

type SymbolByIDReq struct {
	CtidTraderAccountID int64   `json:"ctidTraderAccountId"`
	SymbolID            []int64 `json:"symbolId"`
}

func (SymbolByIDReq) PayloadType() PayloadType { return PayloadSymbolByIDReq }

// Symbol 品种完整信息
type Symbol struct {
	SymbolID    int64  `json:"symbolId"`
	Digits      int32  `json:"digits"`
	PipPosition int32  `json:"pipPosition"`
	LotSize     int64  `json:"lotSize"`
	MinVolume   int64  `json:"minVolume"`
	MaxVolume   int64  `json:"maxVolume"`
	StepVolume  int64  `json:"stepVolume"`
	TradingMode string `json:"tradingMode"`
}

type SymbolByIDRes struct {
	CtidTraderAccountID int64    `json:"ctidTraderAccountId"`
	Symbol              []Symbol `json:"symbol"`
}

type SubscribeSpotsReq struct {
	CtidTraderAccountID int64   `json:"ctidTraderAccountId"`
	SymbolID            []int64 `json:"symbolId"`
}

func (SubscribeSpotsReq) PayloadType() PayloadType { return PayloadSubscribeSpotsReq }

type UnsubscribeSpotsReq struct {
	CtidTraderAccountID int64   `json:"ctidTraderAccountId"`
	SymbolID            []int64 `json:"symbolId"`
}

func (UnsubscribeSpotsReq) PayloadType() PayloadType { return PayloadUnsubscribeSpotsReq }

type SpotEvent struct {
	CtidTraderAccountID int64  `json:"ctidTraderAccountId"`
	SymbolID            int64  `json:"symbolId"`
	Bid                 *int64 `json:"bid,omitempty"`
	Ask                 *int64 `json:"ask,omitempty"`
	Timestamp           int64  `json:"timestamp,omitempty"`
}

type GetTrendbarsReq struct {
	CtidTraderAccountID int64          `json:"ctidTraderAccountId"`
	FromTimestamp       int64          `json:"fromTimestamp"`
	ToTimestamp         int64          `json:"toTimestamp"`
	Period              TrendbarPeriod `json:"period"`
	SymbolID            int64          `json:"symbolId"`
}

func (GetTrendbarsReq) PayloadType() PayloadType { return PayloadGetTrendbarsReq }

// Trendbar 价格以 low 为基准, 其它价格为相对 low 的增量
type Trendbar struct {
	Volume                int64  `json:"volume"`
	Low                   int64  `json:"low"`
	DeltaOpen             *int64 `json:"deltaOpen,omitempty"`
	DeltaClose            *int64 `json:"deltaClose,omitempty"`
	DeltaHigh             *int64 `json:"deltaHigh,omitempty"`
	UTCTimestampInMinutes int64  `json:"utcTimestampInMinutes"`
}

type GetTrendbarsRes struct {
	CtidTraderAccountID int64          `json:"ctidTraderAccountId"`
	Period              TrendbarPeriod `json:"period"`
	SymbolID            int64          `json:"symbolId"`
	Trendbar            []Trendbar     `json:"trendbar"`
}

type RefreshTokenReq struct {
	RefreshToken string `json:"refreshToken"`
}

func (RefreshTokenReq) PayloadType() PayloadType { return PayloadRefreshTokenReq }

type RefreshTokenRes struct {
	AccessToken  string `json:"accessToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
	RefreshToken string `json:"refreshToken"`
}

type ErrorRes struct {
	CtidTraderAccountID     int64  `json:"ctidTraderAccountId,omitempty"`
	ErrorCode               string `json:"errorCode"`
	Description             string `json:"description,omitempty"`
	MaintenanceEndTimestamp int64  `json:"maintenanceEndTimestamp,omitempty"`
}

type AccountsTokenInvalidatedEvent struct {
	CtidTraderAccountIDs []int64 `json:"ctidTraderAccountIds"`
	Reason               string  `json:"reason,omitempty"`
}

type ClientDisconnectEvent struct {
	Reason string `json:"reason,omitempty"`
}

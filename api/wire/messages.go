// Package wire is the RPC contract of the restaurant services: message
// shapes, the JSON codec they travel in, service descriptors and
// clients. Enumerations travel as their names.
//
// Calls use the "json" content-subtype. Clients generated from a protobuf
// IDL with the default proto codec cannot talk to these services; they
// must encode requests as JSON and send CallOption.
package wire

// Role names.
const (
	RoleUnspecified = "ROLE_UNSPECIFIED"
	RoleManager     = "MANAGER"
	RoleServer      = "SERVER"
)

// Order type names.
const (
	OrderDineIn  = "DINE_IN"
	OrderTakeOut = "TAKE_OUT"
)

// -------------------- Auth --------------------

type AuthRequest struct {
	UserID   string `json:"userID"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AuthToken string `json:"authToken"`
	Role      string `json:"role"`
}

type LogoutRequest struct{}

type LogoutResponse struct {
	OK bool `json:"ok"`
}

// -------------------- Menu --------------------

type MenuItem struct {
	ItemID     string `json:"itemID"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
}

type MenuCategory struct {
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

type Menu struct {
	Categories []MenuCategory `json:"categories"`
}

type MenuGetRequest struct{}

type MenuGetResponse struct {
	Menu Menu `json:"menu"`
}

type MenuUpdateRequest struct {
	Operation string   `json:"operation"`
	Category  string   `json:"category"`
	Item      MenuItem `json:"item"`
}

type MenuUpdateResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// -------------------- Orders --------------------

type TakeOutInfo struct {
	CustomerName string `json:"customerName"`
}

type OrderLine struct {
	ItemID string `json:"itemID"`
	Qty    int64  `json:"qty"`
}

type BillLine struct {
	ItemID         string `json:"itemID"`
	Qty            int64  `json:"qty"`
	LineTotalCents int64  `json:"lineTotalCents"`
}

type Bill struct {
	Lines         []BillLine `json:"lines"`
	SubtotalCents int64      `json:"subtotalCents"`
}

type OrderSubmitRequest struct {
	Type      string       `json:"type"`
	RequestID string       `json:"requestId"`
	TakeOut   *TakeOutInfo `json:"takeOut,omitempty"`
	Lines     []OrderLine  `json:"lines"`
}

type OrderSubmitResponse struct {
	OrderID string `json:"orderID"`
	Bill    Bill   `json:"bill"`
}

type OrderEntry struct {
	OrderID   string       `json:"orderID"`
	Type      string       `json:"type"`
	RequestID string       `json:"requestId"`
	TakeOut   *TakeOutInfo `json:"takeOut,omitempty"`
	Bill      Bill         `json:"bill"`
	CreatedAt string       `json:"createdAt,omitempty"`
}

type OrderListRequest struct{}

type OrderListResponse struct {
	Orders []OrderEntry `json:"orders"`
}

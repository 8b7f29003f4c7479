package core

// SheetKind names a logical dataset stored in the spreadsheet. The API's
// type= parameter carries these values.
type SheetKind string

const (
	KindOrders    SheetKind = "ORDERS"
	KindCTVOrders SheetKind = "CTV_ORDERS"
	KindInventory SheetKind = "INVENTORY"
	KindProducts  SheetKind = "PRODUCTS"
	KindCustomers SheetKind = "CUSTOMERS"
	KindOrdViet   SheetKind = "ORDVIET"
	KindOrdChina  SheetKind = "ORDCHINA"
)

// ParseSheetKind validates a type= parameter.
func ParseSheetKind(s string) (SheetKind, error) {
	switch SheetKind(s) {
	case KindOrders, KindCTVOrders, KindInventory, KindProducts, KindCustomers, KindOrdViet, KindOrdChina:
		return SheetKind(s), nil
	}
	return "", Validationf("unknown sheet type %q", s)
}

// Label is the physical sheet-name prefix for this dataset kind.
func (k SheetKind) Label() string {
	switch k {
	case KindOrders:
		return "BÁN HÀNG"
	case KindCTVOrders:
		return "CTV"
	case KindInventory:
		return "NHẬP HÀNG"
	case KindProducts:
		return "SP"
	case KindCustomers:
		return "KHÁCH HÀNG"
	case KindOrdViet:
		return "ORDVIET"
	case KindOrdChina:
		return "ORDCHINA"
	}
	return string(k)
}

// HeaderRows is the number of leading rows a partition of this kind
// reserves for column titles.
func (k SheetKind) HeaderRows() int {
	switch k {
	case KindOrders, KindCTVOrders:
		return 3
	default:
		return 1
	}
}

// OrderStatus is the explicit order state. The storage layer keeps it as
// free text; the service layer only writes values from this set and
// validates transitions at the boundary.
type OrderStatus string

const (
	// StatusOrdered is the initial state of a placed order.
	StatusOrdered OrderStatus = "ĐÃ ĐẶT HÀNG"
	// StatusArrived marks an order whose goods arrived and got a bill attached.
	StatusArrived OrderStatus = "HÀNG VỀ"
	// StatusDomestic tags orders routed through the domestic-bill workflow.
	// Set manually; acts as a filter predicate, not a lifecycle step.
	StatusDomestic OrderStatus = "HÀNG VIỆT"
)

// ParseOrderStatus validates a status value supplied at the boundary.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusOrdered, StatusArrived, StatusDomestic:
		return OrderStatus(s), nil
	}
	return "", Validationf("unknown order status %q", s)
}

// CanTransitionTo reports whether next is a legal successor of s.
// Arrived is terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case StatusOrdered:
		return next == StatusArrived || next == StatusDomestic
	case StatusDomestic:
		return next == StatusArrived
	case StatusArrived:
		return false
	}
	// Legacy rows hold free text; any known status may take over.
	return true
}

// Order is one row of an order-family partition (customer, CTV or
// inventory). RowIndex is the 0-based position among non-header rows and is
// unstable after any deletion in the same partition.
type Order struct {
	RowIndex     int    `json:"rowIndex"`
	Date         string `json:"date"`
	CustomerName string `json:"customerName"`
	ProductImage string `json:"productImage"`
	ProductName  string `json:"productName"`
	Color        string `json:"color"`
	Size         string `json:"size"`
	Quantity     string `json:"quantity"`
	Total        string `json:"total"`
	Status       string `json:"status"`
	LinkFb       string `json:"linkFb"`
	ContactInfo  string `json:"contactInfo"`
	Note         string `json:"note"`
	ProductCode  string `json:"productCode"`
	OrderCode    string `json:"orderCode"`
	ShippingCode string `json:"shippingCode"`
	Month        string `json:"month"`

	// Set only by the cross-partition bill-eligibility scans.
	Year      int       `json:"year,omitempty"`
	SheetType SheetKind `json:"sheetType,omitempty"`
}

// Product is one row of an SP partition. ProductCode uniqueness is enforced
// by lookup-before-insert, not by the store.
type Product struct {
	RowIndex     int    `json:"rowIndex"`
	Date         string `json:"date"`
	ProductCode  string `json:"productCode"`
	ProductImage string `json:"productImage"`
	ProductName  string `json:"productName"`
	Month        string `json:"month"`
}

// Customer is one row of the customer directory sheet. CustomerName is the
// dedup key, compared case- and whitespace-insensitively.
type Customer struct {
	RowIndex     int    `json:"rowIndex"`
	CustomerName string `json:"customerName"`
	ContactInfo  string `json:"contactInfo"`
	LinkFb       string `json:"linkFb"`
}

// Bill is one row of an ORDVIET partition. RowIndex is the 1-indexed sheet
// row holding the record.
type Bill struct {
	RowIndex    int    `json:"rowIndex"`
	BillCode    string `json:"billCode"`
	BillImage   string `json:"billImage"`
	Status      string `json:"status"`
	Quantity    int    `json:"quantity"`
	TotalAmount int64  `json:"totalAmount"`
	Note        string `json:"note"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
}

// ImportRecord is one row of an ORDCHINA partition. The partition's total
// import cost lives in a designated cell (K2) and is read directly rather
// than summed from rows.
type ImportRecord struct {
	ManagementCode string `json:"managementCode"`
	ProductName    string `json:"productName"`
	ProductImage   string `json:"productImage"`
	Status         string `json:"status"`
	ShippingCodes  string `json:"shippingCodes"`
	Note           string `json:"note"`
	OrderDate      string `json:"orderDate"`
	ArrivalDate    string `json:"arrivalDate"`
	Quantity       string `json:"quantity"`
	ImportPrice    string `json:"importPrice"`
}

// Account is one row of the Account sheet.
type Account struct {
	Username string `json:"username"`
	Password string `json:"-"`
	Role     string `json:"role"`
}

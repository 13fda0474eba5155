package billplz

// Bill states reported by the gateway.
const (
	StateDue     = "due"
	StatePaid    = "paid"
	StateDeleted = "deleted"
)

// Collection is a gateway-side grouping container for bills.
type Collection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Bill is a gateway-side payable invoice. Amounts are in sen.
type Bill struct {
	ID              string  `json:"id"`
	CollectionID    string  `json:"collection_id"`
	State           string  `json:"state"`
	Paid            bool    `json:"paid"`
	Amount          int64   `json:"amount"`
	PaidAmount      int64   `json:"paid_amount"`
	DueAt           string  `json:"due_at"`
	Email           string  `json:"email"`
	Mobile          *string `json:"mobile"`
	Name            string  `json:"name"`
	URL             string  `json:"url"`
	PaidAt          *string `json:"paid_at,omitempty"`
	Reference1Label *string `json:"reference_1_label,omitempty"`
	Reference1      *string `json:"reference_1,omitempty"`
	Reference2Label *string `json:"reference_2_label,omitempty"`
	Reference2      *string `json:"reference_2,omitempty"`
	RedirectURL     *string `json:"redirect_url,omitempty"`
	CallbackURL     *string `json:"callback_url,omitempty"`
	Description     string  `json:"description"`
}

// IsSettled reports whether the gateway considers the bill paid in full.
func (b *Bill) IsSettled() bool {
	return b.Paid && b.State == StatePaid
}

// CreateBillParams describes a bill to create. Amount is in MYR and is
// converted to sen (rounded) on the wire.
type CreateBillParams struct {
	Description     string
	Amount          float64
	Name            string
	Email           string
	Mobile          string
	CallbackURL     string
	RedirectURL     string
	Reference1Label string
	Reference1      string
}

type createCollectionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createBillRequest struct {
	CollectionID    string `json:"collection_id"`
	Description     string `json:"description"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Amount          int64  `json:"amount"`
	CallbackURL     string `json:"callback_url"`
	RedirectURL     string `json:"redirect_url"`
	Mobile          string `json:"mobile,omitempty"`
	Reference1Label string `json:"reference_1_label,omitempty"`
	Reference1      string `json:"reference_1,omitempty"`
}

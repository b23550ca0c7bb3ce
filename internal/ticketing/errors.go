package ticketing

import "net/http"

// Error is a rejected-operation reason. Every lifecycle and registry
// failure surfaces one of the sentinel values below, so callers can always
// tell "insufficient funds" apart from "ticket not eligible".
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string { return e.Message }

var (
	ErrIncorrectPayment   = &Error{Code: "INCORRECT_PAYMENT", Message: "payment must match the required amount exactly", Status: http.StatusBadRequest}
	ErrEventCancelled     = &Error{Code: "EVENT_CANCELLED", Message: "event has been cancelled", Status: http.StatusConflict}
	ErrEventNotCancelled  = &Error{Code: "EVENT_NOT_CANCELLED", Message: "cancellation refunds are only available once the event is cancelled", Status: http.StatusConflict}
	ErrEventSoldOut       = &Error{Code: "EVENT_SOLD_OUT", Message: "all tickets for this event have been minted", Status: http.StatusConflict}
	ErrTicketNotFound     = &Error{Code: "TICKET_NOT_FOUND", Message: "ticket does not exist or has been retired", Status: http.StatusNotFound}
	ErrCannotBuyOwnTicket = &Error{Code: "CANNOT_BUY_OWN_TICKET", Message: "ticket is already owned by the buyer", Status: http.StatusConflict}
	ErrTicketAlreadyUsed  = &Error{Code: "TICKET_ALREADY_USED", Message: "ticket has already been checked in", Status: http.StatusConflict}
	ErrExceedsResaleCap   = &Error{Code: "EXCEEDS_RESALE_CAP", Message: "price exceeds the maximum allowed resale price", Status: http.StatusBadRequest}
	ErrBelowResaleFloor   = &Error{Code: "BELOW_RESALE_FLOOR", Message: "price is below the minimum allowed resale price", Status: http.StatusBadRequest}
	ErrNotTicketOwner     = &Error{Code: "NOT_TICKET_OWNER", Message: "caller does not own this ticket", Status: http.StatusForbidden}
	ErrNotOrganizer       = &Error{Code: "NOT_ORGANIZER", Message: "only the event organizer may perform this operation", Status: http.StatusForbidden}
	ErrMintLimitReached   = &Error{Code: "MINT_LIMIT_REACHED", Message: "per-buyer mint limit reached for this event", Status: http.StatusConflict}

	ErrInsufficientFunds           = &Error{Code: "INSUFFICIENT_FUNDS", Message: "wallet balance is too low for this payment", Status: http.StatusPaymentRequired}
	ErrInsufficientContractBalance = &Error{Code: "INSUFFICIENT_CONTRACT_BALANCE", Message: "collection's retained balance cannot cover the refund", Status: http.StatusConflict}

	ErrEventAlreadyCancelled    = &Error{Code: "EVENT_ALREADY_CANCELLED", Message: "event is already cancelled", Status: http.StatusConflict}
	ErrEmptyCancellationReason  = &Error{Code: "EMPTY_CANCELLATION_REASON", Message: "a cancellation reason is required", Status: http.StatusBadRequest}
	ErrEmptyMetadataLocator     = &Error{Code: "EMPTY_METADATA_LOCATOR", Message: "metadata locator must not be empty", Status: http.StatusBadRequest}
	ErrMetadataLocatorUnchanged = &Error{Code: "METADATA_LOCATOR_UNCHANGED", Message: "metadata locator must differ from the current value", Status: http.StatusBadRequest}

	ErrCollectionNotFound = &Error{Code: "COLLECTION_NOT_FOUND", Message: "collection does not exist", Status: http.StatusNotFound}
	ErrAccountNotFound    = &Error{Code: "ACCOUNT_NOT_FOUND", Message: "wallet account does not exist", Status: http.StatusNotFound}
	ErrInvalidAmount      = &Error{Code: "INVALID_AMOUNT", Message: "amount must be positive", Status: http.StatusBadRequest}

	// Registry validation failures.
	ErrEmptyName            = &Error{Code: "EMPTY_NAME", Message: "collection name must not be empty", Status: http.StatusBadRequest}
	ErrEmptySymbol          = &Error{Code: "EMPTY_SYMBOL", Message: "collection symbol must not be empty", Status: http.StatusBadRequest}
	ErrInvalidMaxSupply     = &Error{Code: "INVALID_MAX_SUPPLY", Message: "max supply is out of the allowed range", Status: http.StatusBadRequest}
	ErrFaceValueTooLow      = &Error{Code: "FACE_VALUE_TOO_LOW", Message: "face value is below the minimum ticket price", Status: http.StatusBadRequest}
	ErrNoOrganizer          = &Error{Code: "NO_ORGANIZER", Message: "an organizer identity is required", Status: http.StatusBadRequest}
	ErrInvalidResalePercent = &Error{Code: "INVALID_RESALE_PERCENT", Message: "max resale percent is out of the allowed range", Status: http.StatusBadRequest}
	ErrInvalidFeePercent    = &Error{Code: "INVALID_FEE_PERCENT", Message: "organizer fee percent is out of the allowed range", Status: http.StatusBadRequest}
	ErrNotAdmin             = &Error{Code: "NOT_ADMIN", Message: "only an admin may perform this operation", Status: http.StatusForbidden}
)

package consts

// CtxKey is the type used for context value keys across the service.
type CtxKey string

const (
	CtxKeyLogID CtxKey = "log_id"
	// CtxKeyAddress carries the raw conversation address of the inbound message.
	CtxKeyAddress  CtxKey = "address"
	CtxKeyUserID   CtxKey = "user_id"
	CtxKeyUserName CtxKey = "user_name"
	CtxKeyItemID   CtxKey = "item_id"
)

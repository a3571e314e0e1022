package types

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
	FlagToken     = "token"
	FlagAmount    = "amount"
)

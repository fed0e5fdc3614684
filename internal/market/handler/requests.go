package handler

// CreateMarketRequest opens a new market over a claim.
type CreateMarketRequest struct {
	MarketID string `json:"market_id"`
	ClaimRef string `json:"claim_ref"`
}

// StakeRequest locks Cred on one side of a market. Amount is a decimal
// string, e.g. "40.000000".
type StakeRequest struct {
	Amount    string `json:"amount"`
	Direction bool   `json:"direction"`
}

// SubmitEvidenceRequest attaches an off-ledger content reference.
type SubmitEvidenceRequest struct {
	CID string `json:"cid"`
}

// ResolveRequest pins a market outcome. Executor authority only.
type ResolveRequest struct {
	Outcome        uint8  `json:"outcome"`
	TranscriptHash string `json:"transcript_hash"`
}

// DistributeRequest pays out one winning staker. Executor authority only.
type DistributeRequest struct {
	User   string `json:"user"`
	Amount string `json:"amount"`
}

package indexer

// sql models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type GovConfig struct {
	Id              uint64 `gorm:"primary_key" json:"id"`
	GovernanceToken string `json:"governance_token"`
	Initializer     string `json:"initializer"`
	Height          uint64 `json:"height"`
}

type Proposal struct {
	Id             uint64 `gorm:"primary_key" json:"id"`
	CreatorAddress string `gorm:"index" json:"creator_address"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Options        string `json:"options"`
	StartTime      int64  `json:"start_time"`
	EndTime        int64  `json:"end_time"`
	NewHeight      uint64 `json:"new_height"`
	VoteCount      uint64 `json:"vote_count"`
	TotalWeight    uint64 `json:"total_weight"`
	Tallied        bool   `json:"tallied"`
	TallyHeight    uint64 `json:"tally_height"`
	Tally          string `json:"tally"`
	Winner         int64  `json:"winner"`
}

type Vote struct {
	Id           uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Proposal     uint64 `gorm:"index" json:"proposal"`
	VoterAddress string `gorm:"index" json:"voter_address"`
	Option       uint8  `json:"option"`
	Weight       uint64 `json:"weight"`
	Height       uint64 `json:"height"`
}

package types

import (
	"fmt"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

const (
	EventConfigInitializedType = "config_initialized"
	EventProposalCreatedType   = "proposal_created"
	EventVoteCastType          = "vote_cast"
	EventProposalTalliedType   = "proposal_tallied"
	EventUpdateValidatorType   = "update_validator"
)

// NoWinner is the encoded winner of a proposal without one.
const NoWinner int64 = -1

type EventConfigInitialized struct {
	GovernanceToken common.Address `json:"governanceToken"`
	Initializer     string         `json:"initializer"`
}

func EncodeEventConfigInitialized(event *EventConfigInitialized) abci.Event {
	return abci.Event{
		Type: EventConfigInitializedType,
		Attributes: []abci.EventAttribute{
			{Key: "token", Value: event.GovernanceToken.Hex(), Index: true},
			{Key: "initializer", Value: event.Initializer, Index: false},
		},
	}
}

func DecodeEventConfigInitialized(originEvent abci.Event) *EventConfigInitialized {
	event := &EventConfigInitialized{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "token":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.GovernanceToken = common.HexToAddress(v.Value)
		case "initializer":
			event.Initializer = v.Value
		}
	}
	return event
}

type EventProposalCreated struct {
	ProposalIndex  uint64   `json:"proposalIndex"`
	CreatorAddress string   `json:"creatorAddress"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Options        []string `json:"options"`
	StartTime      int64    `json:"startTime"`
	EndTime        int64    `json:"endTime"`
}

func EncodeEventProposalCreated(event *EventProposalCreated) abci.Event {
	return abci.Event{
		Type: EventProposalCreatedType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalIndex), Index: true},
			{Key: "creator", Value: event.CreatorAddress, Index: true},
			{Key: "title", Value: event.Title, Index: false},
			{Key: "description", Value: event.Description, Index: false},
			{Key: "options", Value: encodeList(event.Options), Index: false},
			{Key: "startTime", Value: fmt.Sprintf("%v", event.StartTime), Index: false},
			{Key: "endTime", Value: fmt.Sprintf("%v", event.EndTime), Index: false},
		},
	}
}

func DecodeEventProposalCreated(originEvent abci.Event) *EventProposalCreated {
	event := &EventProposalCreated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalIndex = proposal
		case "creator":
			event.CreatorAddress = v.Value
		case "title":
			event.Title = v.Value
		case "description":
			event.Description = v.Value
		case "options":
			options, err := decodeList(v.Value)
			if err != nil {
				return nil
			}
			event.Options = options
		case "startTime":
			start, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.StartTime = start
		case "endTime":
			end, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.EndTime = end
		}
	}
	return event
}

type EventVoteCast struct {
	ProposalIndex uint64 `json:"proposalIndex"`
	VoterAddress  string `json:"voterAddress"`
	Option        uint8  `json:"option"`
	Weight        uint64 `json:"weight"`
}

func EncodeEventVoteCast(event *EventVoteCast) abci.Event {
	return abci.Event{
		Type: EventVoteCastType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalIndex), Index: true},
			{Key: "voter", Value: event.VoterAddress, Index: true},
			{Key: "option", Value: fmt.Sprintf("%v", event.Option), Index: false},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
		},
	}
}

func DecodeEventVoteCast(originEvent abci.Event) *EventVoteCast {
	event := &EventVoteCast{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalIndex = proposal
		case "voter":
			event.VoterAddress = v.Value
		case "option":
			option, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.Option = uint8(option)
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		}
	}
	return event
}

type EventProposalTallied struct {
	ProposalIndex uint64   `json:"proposalIndex"`
	Winner        int64    `json:"winner"`
	Tally         []uint64 `json:"tally"`
}

func EncodeEventProposalTallied(event *EventProposalTallied) abci.Event {
	tally := make([]string, len(event.Tally))
	for i, w := range event.Tally {
		tally[i] = strconv.FormatUint(w, 10)
	}
	return abci.Event{
		Type: EventProposalTalliedType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalIndex), Index: true},
			{Key: "winner", Value: fmt.Sprintf("%v", event.Winner), Index: false},
			{Key: "tally", Value: strings.Join(tally, ","), Index: false},
		},
	}
}

func DecodeEventProposalTallied(originEvent abci.Event) *EventProposalTallied {
	event := &EventProposalTallied{Winner: NoWinner, Tally: []uint64{}}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalIndex = proposal
		case "winner":
			winner, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Winner = winner
		case "tally":
			if v.Value == "" {
				continue
			}
			for _, s := range strings.Split(v.Value, ",") {
				w, err := strconv.ParseUint(s, 10, 64)
				if err != nil {
					return nil
				}
				event.Tally = append(event.Tally, w)
			}
		}
	}
	return event
}

type EventUpdateValiators struct {
	Updates []abci.ValidatorUpdate `json:"updates"`
}

func EncodeEventUpdateValiators(event *EventUpdateValiators) abci.Event {
	pks := make([]string, len(event.Updates))
	powers := make([]string, len(event.Updates))
	for i := range event.Updates {
		pks[i] = fmt.Sprintf("%X", event.Updates[i].PubKey.GetEd25519())
		powers[i] = fmt.Sprintf("%v", event.Updates[i].Power)
	}
	return abci.Event{
		Type: EventUpdateValidatorType,
		Attributes: []abci.EventAttribute{
			{Key: "pks", Value: strings.Join(pks, ","), Index: false},
			{Key: "powers", Value: strings.Join(powers, ","), Index: false},
		},
	}
}

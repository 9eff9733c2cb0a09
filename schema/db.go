package schema

import (
	"time"

	"gorm.io/datatypes"
)

// ArchivedEvent is the SQL row for one decoded activity log.
type ArchivedEvent struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	CreatedAt time.Time `json:"-"`

	EventId     string         `gorm:"uniqueIndex;size:100" json:"id"`
	Tld         string         `gorm:"index:idx_tld_block;size:64" json:"tld"`
	Type        string         `gorm:"size:16" json:"type"`
	Domain      string         `gorm:"index;size:128" json:"domain"`
	TxHash      string         `gorm:"size:66" json:"txHash"`
	BlockNumber uint64         `gorm:"index:idx_tld_block" json:"blockNumber"`
	TokenId     string         `json:"tokenId"`
	Timestamp   uint64         `json:"timestamp"`
	From        string         `json:"from,omitempty"`
	To          string         `json:"to,omitempty"`
	Expiration  string         `json:"expiration,omitempty"`
	Raw         datatypes.JSON `json:"-"` // json(ActivityEvent) as published
}

func (a ArchivedEvent) Event() ActivityEvent {
	return ActivityEvent{
		ID:          a.EventId,
		Type:        a.Type,
		Domain:      a.Domain,
		TxHash:      a.TxHash,
		BlockNumber: a.BlockNumber,
		TokenId:     a.TokenId,
		Timestamp:   a.Timestamp,
		Tld:         a.Tld,
		From:        a.From,
		To:          a.To,
		Expiration:  a.Expiration,
	}
}

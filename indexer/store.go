package indexer

import (
	"errors"

	"github.com/calehh/daochain/config"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

const DefaultPageSize = 20

var ErrNotIndexed = errors.New("not indexed")

// Store persists indexed governance records.
type Store struct {
	db *gorm.DB
}

// OpenStore opens the database named by databaseURL, a sqlite path or a
// postgres URL, and migrates the indexer tables.
func OpenStore(databaseURL string) (*Store, error) {
	dialect, dsn := config.DatabaseDialect(databaseURL)
	db, err := gorm.Open(dialect, dsn)
	if err != nil {
		return nil, err
	}
	if dialect == config.DatabaseDialectSqlite {
		// sqlite allows a single writer; an in-memory database exists per connection
		db.DB().SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&Height{}, &GovConfig{}, &Proposal{}, &Vote{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Height returns the last fully indexed block height, 0 if none.
func (s *Store) Height() (uint64, error) {
	h := Height{Id: 1}
	if err := s.db.First(&h).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return 0, nil
		}
		return 0, err
	}
	return h.Height, nil
}

func (s *Store) SaveHeight(height uint64) error {
	return s.db.Save(&Height{Id: 1, Height: height}).Error
}

func (s *Store) GetConfig() (GovConfig, error) {
	cfg := GovConfig{}
	if err := s.db.First(&cfg, 1).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return GovConfig{}, ErrNotIndexed
		}
		return GovConfig{}, err
	}
	return cfg, nil
}

func (s *Store) GetProposalById(proposalId uint64) (Proposal, error) {
	var proposal Proposal
	err := s.db.Where("id = ?", proposalId).First(&proposal).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return Proposal{}, ErrNotIndexed
		}
		return Proposal{}, err
	}
	return proposal, nil
}

func pageBounds(page, pageSize int) (int, int) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return page * pageSize, pageSize
}

// GetProposals lists proposals newest first, restricted to creator when it is
// not empty.
func (s *Store) GetProposals(creator string, page int, pageSize int) ([]Proposal, uint64, error) {
	offset, limit := pageBounds(page, pageSize)
	q := s.db.Model(&Proposal{})
	if creator != "" {
		q = q.Where("creator_address = ?", creator)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	proposals := make([]Proposal, 0)
	if err := q.Order("id desc").Offset(offset).Limit(limit).Find(&proposals).Error; err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

// GetVotes lists votes in cast order. Zero proposal and empty voter match all.
func (s *Store) GetVotes(proposal uint64, voter string, page int, pageSize int) ([]Vote, uint64, error) {
	offset, limit := pageBounds(page, pageSize)
	q := s.db.Model(&Vote{})
	if proposal != 0 {
		q = q.Where("proposal = ?", proposal)
	}
	if voter != "" {
		q = q.Where("voter_address = ?", voter)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	votes := make([]Vote, 0)
	if err := q.Order("id asc").Offset(offset).Limit(limit).Find(&votes).Error; err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (s *Store) saveConfig(cfg *GovConfig) error {
	cfg.Id = 1
	return s.db.Save(cfg).Error
}

// saveProposal inserts p unless a proposal with its index is already indexed.
func (s *Store) saveProposal(p *Proposal) error {
	var existing Proposal
	err := s.db.Where("id = ?", p.Id).First(&existing).Error
	if err == nil {
		return nil
	}
	if !gorm.IsRecordNotFoundError(err) {
		return err
	}
	return s.db.Create(p).Error
}

// saveVote records v once per proposal and voter and adds its weight to the
// proposal. Replaying a block leaves the records unchanged.
func (s *Store) saveVote(v *Vote) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing Vote
		err := tx.Where("proposal = ? AND voter_address = ?", v.Proposal, v.VoterAddress).First(&existing).Error
		if err == nil {
			return nil
		}
		if !gorm.IsRecordNotFoundError(err) {
			return err
		}
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		return tx.Model(&Proposal{}).Where("id = ?", v.Proposal).Updates(map[string]interface{}{
			"vote_count":   gorm.Expr("vote_count + ?", 1),
			"total_weight": gorm.Expr("total_weight + ?", v.Weight),
		}).Error
	})
}

func (s *Store) saveTally(proposal uint64, height uint64, tally string, winner int64) error {
	return s.db.Model(&Proposal{}).Where("id = ?", proposal).Updates(map[string]interface{}{
		"tallied":      true,
		"tally_height": height,
		"tally":        tally,
		"winner":       winner,
	}).Error
}

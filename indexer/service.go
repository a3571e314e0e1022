package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/gin-gonic/gin"
)

type Service struct {
	engine *gin.Engine
	store  *Store
	logger cmtlog.Logger
	srv    *http.Server
}

func NewService(listenAddr string, store *Store, logger cmtlog.Logger) *Service {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	s := &Service{
		engine: r,
		store:  store,
		logger: logger.With("module", "api"),
	}
	s.srv = &http.Server{Addr: listenAddr, Handler: r}
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getConfig", s.handleGetConfig)
	return s
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

// Start serves until Stop is called.
func (s *Service) Start() error {
	s.logger.Info("api listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

type ProposalInfo struct {
	Proposal
	Options []string `json:"options"`
	Tally   []string `json:"tally"`
}

func toProposalInfo(p Proposal) (ProposalInfo, error) {
	info := ProposalInfo{Proposal: p, Options: []string{}, Tally: []string{}}
	if p.Options != "" {
		if err := json.Unmarshal([]byte(p.Options), &info.Options); err != nil {
			return ProposalInfo{}, err
		}
	}
	if p.Tally != "" {
		info.Tally = strings.Split(p.Tally, ",")
	}
	return info, nil
}

type GetProposalsReq struct {
	ProposalId uint64 `json:"proposalId"`
	Creator    string `json:"creator"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

type GetProposalResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var proposals []Proposal
	if requestData.ProposalId != 0 {
		proposal, err := s.store.GetProposalById(requestData.ProposalId)
		if err != nil {
			if errors.Is(err, ErrNotIndexed) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		proposals = []Proposal{proposal}
		response.Total = 1
	} else {
		var err error
		proposals, response.Total, err = s.store.GetProposals(requestData.Creator, requestData.Page, requestData.PageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	for _, p := range proposals {
		info, err := toProposalInfo(p)
		if err != nil {
			s.logger.Error("decode proposal fail", "proposal", p.Id, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, info)
	}
	c.JSON(http.StatusOK, response)
}

type GetVotesReq struct {
	ProposalId uint64 `json:"proposalId"`
	Voter      string `json:"voter"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.ProposalId == 0 && requestData.Voter == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId or voter is required"})
		return
	}
	votes, total, err := s.store.GetVotes(requestData.ProposalId, requestData.Voter, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetVotesResponse{Votes: votes, Total: total})
}

func (s *Service) handleGetConfig(c *gin.Context) {
	cfg, err := s.store.GetConfig()
	if err != nil {
		if errors.Is(err, ErrNotIndexed) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

package dto

import (
	"github.com/hugh/blogit/internal/database/models"
	"github.com/hugh/blogit/internal/votes"
)

type VoteRequest struct {
	Vote *VoteParams `json:"vote"`
}

type VoteParams struct {
	VoteType string `json:"vote_type"`
}

func (r VoteRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Vote == nil {
		errors["vote"] = MissingParam("vote")
	}
	return errors
}

type VoteResponse struct {
	Upvotes     int     `json:"upvotes"`
	Downvotes   int     `json:"downvotes"`
	NetVotes    int     `json:"net_votes"`
	UserVote    *string `json:"user_vote"`
	IsBloggable bool    `json:"is_bloggable"`
}

func NewVoteResponse(res *votes.Result) VoteResponse {
	return VoteResponse{
		Upvotes:     res.Upvotes,
		Downvotes:   res.Downvotes,
		NetVotes:    res.NetVotes,
		UserVote:    voteName(res.UserVote),
		IsBloggable: res.IsBloggable,
	}
}

// voteName renders a vote as "upvote"/"downvote", or nil for no vote.
func voteName(v models.VoteType) *string {
	if v == models.VoteNone {
		return nil
	}
	name := v.String()
	return &name
}

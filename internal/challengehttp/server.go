// Package challengehttp is the partner-side HTTP surface for remote
// challenge issuance and proof verification. The protocol core only ever
// constructs proof payloads; checking them lands here.
package challengehttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ledgebase/framelink/internal/auth"
	"github.com/ledgebase/framelink/internal/challenge"
)

// Server verifies proofs against the shared challenge secret. When tokens is
// non-nil the v1 routes require a bearer token it accepts.
type Server struct {
	codec  challenge.Codec
	tokens auth.Validator
	log    zerolog.Logger
}

// VerifyRequest is the account+proof+partner triple submitted by the widget
// backend.
type VerifyRequest struct {
	Address   string `json:"address" binding:"required"`
	PartnerID string `json:"partnerId" binding:"required"`
	Proof     struct {
		Payload   string `json:"payload" binding:"required"`
		Signature string `json:"signature" binding:"required"`
		Timestamp int64  `json:"timestamp"`
		Domain    string `json:"domain"`
	} `json:"proof" binding:"required"`
}

// VerifyResponse reports the verdict with a stable reason code.
type VerifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func NewServer(codec challenge.Codec, tokens auth.Validator, log zerolog.Logger) *Server {
	return &Server{codec: codec, tokens: tokens, log: log}
}

// Router wires the service routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/v1")
	if s.tokens != nil {
		v1.Use(s.requireToken)
	}
	{
		v1.POST("/challenge", s.handleChallenge)
		v1.POST("/proof/verify", s.handleVerify)
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func (s *Server) requireToken(c *gin.Context) {
	token := auth.BearerToken(c.GetHeader("Authorization"))
	if err := s.tokens.Validate(token); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) handleChallenge(c *gin.Context) {
	payload, err := s.codec.Issue()
	if err != nil {
		s.log.Error().Err(err).Msg("challenge issue failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue challenge"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenge": payload})
}

// handleVerify checks the embedded challenge payload. Wallet signature
// verification is delegated to the chain-specific verifier and is out of
// scope here; an unverifiable payload is rejected before any of that work.
func (s *Server) handleVerify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !s.codec.Verify(req.Proof.Payload) {
		s.log.Debug().Str("address", req.Address).Str("partner_id", req.PartnerID).Msg("proof payload rejected")
		c.JSON(http.StatusOK, VerifyResponse{Valid: false, Reason: "EXPIRED_PAYLOAD"})
		return
	}
	c.JSON(http.StatusOK, VerifyResponse{Valid: true})
}

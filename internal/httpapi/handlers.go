package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"

	"github.com/ctxspine/repomap/internal/rank"
	"github.com/ctxspine/repomap/internal/store"
)

// buildRequest is the POST /v1/build and /v1/update request body.
type buildRequest struct {
	RepoRoot  string `json:"repoRoot" binding:"required"`
	DiffRange string `json:"diffRange"`
}

// buildResponse reports the outcome of a build, per C3's output contract.
type buildResponse struct {
	ParsedFiles int  `json:"parsedFiles"`
	ReusedFiles int  `json:"reusedFiles"`
	NodeCount   int  `json:"nodeCount"`
	EdgeCount   int  `json:"edgeCount"`
	FullBuild   bool `json:"fullBuild"`
}

func (s *Server) handleBuild(c *gin.Context) {
	var req buildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.runBuild(c.Request.Context(), req.RepoRoot, req.DiffRange)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := store.SaveState(req.RepoRoot, &store.State{
		Version:     store.StateSchemaVersion,
		GeneratedAt: strfmt.DateTime(time.Now().UTC()),
		RepoRoot:    req.RepoRoot,
		Files:       result.Files,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := store.SaveGraph(req.RepoRoot, result.Graph); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, buildResponse{
		ParsedFiles: result.ParsedFiles,
		ReusedFiles: result.ReusedFiles,
		NodeCount:   result.Graph.NodeCount(),
		EdgeCount:   result.Graph.EdgeCount(),
		FullBuild:   result.FullBuild,
	})
}

// handleUpdate is an alias for /build that makes the incremental intent
// explicit at the call site; both paths delegate to the same Driver.Run,
// which already decides full-vs-incremental on its own.
func (s *Server) handleUpdate(c *gin.Context) {
	s.handleBuild(c)
}

type rankRequest struct {
	RepoRoot string   `json:"repoRoot" binding:"required"`
	Seeds    []string `json:"seeds"`
	TopK     int      `json:"topK"`
}

type rankResponse struct {
	Ranked  []rank.RankedFile `json:"ranked"`
	Buckets rank.Buckets      `json:"buckets"`
}

func (s *Server) handleRank(c *gin.Context) {
	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TopK <= 0 {
		req.TopK = 50
	}

	st, err := store.LoadState(req.RepoRoot)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": store.ErrIndexNotBuilt.Error()})
		return
	}
	sg, err := store.LoadGraph(req.RepoRoot)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": store.ErrIndexNotBuilt.Error()})
		return
	}

	g := sg.ToGraph()
	ranked := s.ranker.Rank(c.Request.Context(), g, st.Files, req.Seeds, req.TopK)
	buckets := rank.BuildBuckets(ranked, req.Seeds, req.TopK)

	c.JSON(http.StatusOK, rankResponse{Ranked: ranked, Buckets: buckets})
}

package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"metroroute.org/internal/buildinfo"
)

func TestConfigHandler(t *testing.T) {
	originalCommit := buildinfo.CommitHash
	originalVersion := buildinfo.Version
	originalBranch := buildinfo.Branch
	defer func() {
		buildinfo.CommitHash = originalCommit
		buildinfo.Version = originalVersion
		buildinfo.Branch = originalBranch
	}()

	buildinfo.CommitHash = "test-hash-1234567"
	buildinfo.Version = "1.0.0-test"
	buildinfo.Branch = "feature/testing"

	_, _, model := serveAndRetrieveEndpoint(t, "/api/where/config.json?key=TEST")

	assert.Equal(t, http.StatusOK, model.Code)
	assert.Equal(t, "OK", model.Text)

	entry := entryOf(t, model)
	assert.Equal(t, "metroroute", entry["id"])

	gitProps, ok := entry["gitProperties"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "test-hash-1234567", gitProps["git.commit.id"])
	assert.Equal(t, "test-ha", gitProps["git.commit.id.abbrev"])
	assert.Equal(t, "1.0.0-test", gitProps["git.build.version"])
	assert.Equal(t, "feature/testing", gitProps["git.branch"])

	network, ok := entry["network"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "stations.csv", network["source"])
	assert.Equal(t, "stations-csv", network["format"])
	assert.Equal(t, float64(2), network["lineCount"])
	assert.Equal(t, float64(6), network["stationCount"])
	assert.Equal(t, float64(2), network["transferStationCount"])
	assert.Equal(t, float64(5), network["edgeCount"])
	assert.Equal(t, float64(1), network["transferEdgeCount"])
	assert.Equal(t, float64(testNow.UnixMilli()), network["lastUpdated"])
	assert.Len(t, network["warnings"], 2)
}

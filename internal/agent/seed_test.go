package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debugnerd/internal/config"
	"debugnerd/internal/memory"
)

func newSeedContext(t *testing.T, output string) (*memory.AgentContext, *config.Config) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "etl.py", "import pandas as pd\n\ndef run():\n    df = pd.read_csv(\"orders.csv\")\n    return df[\"CustomerID\"]\n")
	writeFile(t, root, "utils/helper.py", "def clean(s):\n    return s.strip()\n")
	writeFile(t, root, "requirements.txt", "pandas==2.1.0\n")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}\n")

	agent := memory.NewAgentContext("sess-seed", "pipeline crashes", memory.CommandResult{
		CommandString: "python etl.py",
		Stderr:        output,
		ExitCode:      1,
	}, root, memory.Constraints{
		MaxSessionSteps:  20,
		RecentActionsCap: 10,
		DedupWindow:      3,
	})
	return agent, config.DefaultConfig()
}

func TestSeed_InstallsBlockingErrorAndFileState(t *testing.T) {
	traceback := "Traceback (most recent call last):\n" +
		"  File \"etl.py\", line 5, in run\n" +
		"KeyError: 'CustomerID'\n"
	agent, cfg := newSeedContext(t, traceback)

	require.NoError(t, Seed(agent, cfg))

	require.NotNil(t, agent.CurrentBlockingError)
	assert.Equal(t, "key_error", agent.CurrentBlockingError.Type)
	assert.Contains(t, agent.CurrentBlockingError.FileRefs, "etl.py")
	assert.Len(t, agent.ErrorProgression, 1)

	require.NotEmpty(t, agent.KnowledgeBase.ErrorAnalysisNotes)
	require.NotNil(t, agent.KnowledgeBase.FileStructure)
	assert.Positive(t, agent.KnowledgeBase.FileStructure.Metadata.TotalFiles)

	assert.Contains(t, agent.FileState.DiscoveredFiles, "etl.py")
	assert.Equal(t, "etl.py", agent.FileState.PrimaryErrorFile)
	assert.NotContains(t, agent.FileState.DiscoveredFiles, "node_modules/pkg/index.js")
	assert.Empty(t, agent.SessionHistory)
}

func TestSeed_NoErrorPatternStillSeedsStructure(t *testing.T) {
	agent, cfg := newSeedContext(t, "processed 120 rows\n")

	require.NoError(t, Seed(agent, cfg))

	assert.Nil(t, agent.CurrentBlockingError)
	require.NotEmpty(t, agent.KnowledgeBase.ErrorAnalysisNotes)
	assert.NotNil(t, agent.KnowledgeBase.FileStructure)
	assert.NotEmpty(t, agent.FileState.DiscoveredFiles)
}

func TestEnrichFromIndex_NilHybridIsNoop(t *testing.T) {
	agent, cfg := newSeedContext(t, "KeyError: 'CustomerID'\n")
	notesBefore := len(agent.KnowledgeBase.ErrorAnalysisNotes)

	require.NoError(t, EnrichFromIndex(context.Background(), agent, nil, cfg))
	assert.Len(t, agent.KnowledgeBase.ErrorAnalysisNotes, notesBefore)
}

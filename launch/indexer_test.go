package launch

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexerFixture(t *testing.T, structure string) *Indexer {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/exp/webid_structure.json", []byte(structure), 0644))
	return &Indexer{
		Fs:        fs,
		Jar:       "indexer.jar",
		Structure: "/exp/webid_structure.json",
		SourceDir: "/src",
		OutputDir: "/idx",
	}
}

func TestIndexer_Args_DefaultJava(t *testing.T) {
	ix := indexerFixture(t, "{}")

	name, args := ix.Args()

	assert.Equal(t, "java", name)
	assert.Equal(t, []string{"-jar", "indexer.jar", "/exp/webid_structure.json", "/src", "/idx"}, args)
}

func TestIndexer_Run_InvalidStructure(t *testing.T) {
	ix := indexerFixture(t, "{not json")
	ix.Command = helperCommand("echo")

	_, err := ix.Run(context.Background())

	assert.Error(t, err)
}

func TestIndexer_Run_MissingStructure(t *testing.T) {
	ix := &Indexer{Fs: afero.NewMemMapFs(), Structure: "/nope.json", Command: helperCommand("echo")}
	_, err := ix.Run(context.Background())
	assert.Error(t, err)
}

func TestIndexer_Run_CapturesOutput(t *testing.T) {
	ix := indexerFixture(t, `{"agent": {}}`)
	ix.Java = "/opt/java"
	ix.Command = helperCommand("echo")

	out, err := ix.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "-jar indexer.jar /exp/webid_structure.json /src /idx")
	assert.Contains(t, out.Stderr, "warnings: none")
}

func TestIndexer_Run_FailureKeepsOutput(t *testing.T) {
	ix := indexerFixture(t, `{}`)
	ix.Command = helperCommand("fail")

	out, err := ix.Run(context.Background())

	require.Error(t, err)
	require.NotNil(t, out)
	assert.Contains(t, out.Stderr, "boom")
}

package vcf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVCF = `##fileformat=VCFv4.2
##INFO=<ID=DP,Number=1,Type=Integer,Description="Total Depth">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	S1
chr1	100	rs1	A	C	50.0	PASS	DP=52	GT:DP:AD	0/1:52:30,22
1	200	.	G	T	.	lowQual;strandBias	DP=10	GT:DP:AD	0/1:10:7,3
chr2	300	.	T	A,G	.	.	DP=20	GT:DP:AD	1/2:20:2,9,9
`

func newTestParser(t *testing.T, content string) *Parser {
	t.Helper()
	p, err := NewParserFromReader(strings.NewReader(content))
	require.NoError(t, err)
	return p
}

func TestParseVariants(t *testing.T) {
	p := newTestParser(t, sampleVCF)

	v, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "chr1", v.Chrom)
	assert.Equal(t, int64(100), v.Pos)
	assert.Equal(t, "A", v.Ref)
	assert.Equal(t, "C", v.Alt)
	assert.Equal(t, "52", v.Info["DP"])
	assert.Equal(t, []string{"GT", "DP", "AD"}, v.Format)
	require.Len(t, v.Samples, 1)
	assert.Equal(t, "0/1", v.Samples[0]["GT"])

	v, err = p.Next()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "1", v.Chrom)

	v, err = p.Next()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "T", v.Ref)

	v, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSampleNames(t *testing.T) {
	p := newTestParser(t, sampleVCF)
	assert.Equal(t, []string{"S1"}, p.SampleNames())
}

func TestMissingHeader(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("chr1\t100\t.\tA\tC\t.\tPASS\tDP=1\n"))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestTooFewColumns(t *testing.T) {
	p := newTestParser(t, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\nchr1\t100\t.\tA\n")
	_, err := p.Next()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
}

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		chrom string
		want  string
	}{
		{"chr1", "chr1-100-A-C"},
		{"1", "chr1-100-A-C"},
		{"chrX", "chrX-100-A-C"},
		{"MT", "chrMT-100-A-C"},
	}
	for _, tt := range tests {
		v := &Variant{Chrom: tt.chrom, Pos: 100, Ref: "A", Alt: "C"}
		assert.Equal(t, tt.want, v.CanonicalID())
	}
}

func TestDepthPrefersInfo(t *testing.T) {
	v := &Variant{
		Info:    map[string]string{"DP": "52"},
		Samples: []map[string]string{{"DP": "10"}},
	}
	assert.Equal(t, 52, v.Depth())
}

func TestDepthFallsBackToSamples(t *testing.T) {
	v := &Variant{
		Info:    map[string]string{},
		Samples: []map[string]string{{"DP": "10"}, {"DP": "7"}},
	}
	assert.Equal(t, 17, v.Depth())
}

func TestAltAlleleDepth(t *testing.T) {
	v := &Variant{
		Samples: []map[string]string{{"AD": "30,22"}, {"AD": "5,4"}},
	}
	assert.Equal(t, 26, v.AltAlleleDepth())

	noAD := &Variant{Samples: []map[string]string{{"GT": "0/1"}}}
	assert.Equal(t, 0, noAD.AltAlleleDepth())
}

func TestFilterTags(t *testing.T) {
	assert.Equal(t, []string{"PASS"}, (&Variant{Filter: "PASS"}).FilterTags())
	assert.Equal(t, []string{"lowQual", "strandBias"}, (&Variant{Filter: "lowQual;strandBias"}).FilterTags())
	assert.Nil(t, (&Variant{Filter: "."}).FilterTags())
	assert.Nil(t, (&Variant{Filter: ""}).FilterTags())
}

func TestSplitMultiAllelic(t *testing.T) {
	v := &Variant{Chrom: "chr2", Pos: 300, Ref: "T", Alt: "A,G"}
	split := SplitMultiAllelic(v)
	require.Len(t, split, 2)
	assert.Equal(t, "A", split[0].Alt)
	assert.Equal(t, "G", split[1].Alt)

	single := &Variant{Chrom: "chr1", Pos: 1, Ref: "A", Alt: "C"}
	assert.Len(t, SplitMultiAllelic(single), 1)
}

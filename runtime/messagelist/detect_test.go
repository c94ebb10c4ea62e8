package messagelist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Dialect
	}{
		{
			name: "v2 by format",
			raw:  `{"id":"m","role":"user","content":{"format":2,"parts":[]}}`,
			want: DialectV2,
		},
		{
			name: "v3 by format",
			raw:  `{"id":"m","role":"user","content":{"format":3,"parts":[]}}`,
			want: DialectV3,
		},
		{
			name: "v1 flat legacy",
			raw:  `{"id":"m","threadId":"t","role":"user","content":"hi","type":"text"}`,
			want: DialectV1,
		},
		{
			name: "ui v4 by toolInvocations",
			raw:  `{"role":"assistant","parts":[{"type":"text","text":"x"}],"toolInvocations":[]}`,
			want: DialectUIV4,
		},
		{
			name: "ui v4 by tool invocation part",
			raw:  `{"role":"assistant","parts":[{"type":"tool-invocation","toolInvocation":{"state":"call","toolCallId":"c","toolName":"t","args":{}}}]}`,
			want: DialectUIV4,
		},
		{
			name: "ui v5 by typed tool part",
			raw:  `{"role":"assistant","parts":[{"type":"tool-search","toolCallId":"c","state":"input-available","input":{}}]}`,
			want: DialectUIV5,
		},
		{
			name: "ui v5 by reasoning state",
			raw:  `{"role":"assistant","parts":[{"type":"reasoning","text":"why","state":"done"}]}`,
			want: DialectUIV5,
		},
		{
			name: "ui v4 by reasoning details",
			raw:  `{"role":"assistant","parts":[{"type":"reasoning","reasoning":"why","details":[{"type":"text","text":"why"}]}]}`,
			want: DialectUIV4,
		},
		{
			name: "ui v5 by file mediaType",
			raw:  `{"role":"user","parts":[{"type":"file","url":"u","mediaType":"image/png"}]}`,
			want: DialectUIV5,
		},
		{
			name: "ui v4 by file mimeType",
			raw:  `{"role":"user","parts":[{"type":"file","data":"u","mimeType":"image/png"}]}`,
			want: DialectUIV4,
		},
		{
			name: "ui default older",
			raw:  `{"role":"user","parts":[{"type":"text","text":"hi"}]}`,
			want: DialectUIV4,
		},
		{
			name: "core v4 by scalar content",
			raw:  `{"role":"user","content":"hi"}`,
			want: DialectCoreV4,
		},
		{
			name: "core v4 by experimental provider metadata",
			raw:  `{"role":"assistant","content":[{"type":"text","text":"x"}],"experimental_providerMetadata":{}}`,
			want: DialectCoreV4,
		},
		{
			name: "core v4 by tool result vocabulary",
			raw:  `{"role":"tool","content":[{"type":"tool-result","toolCallId":"c","toolName":"t","result":"r"}]}`,
			want: DialectCoreV4,
		},
		{
			name: "model v5 by tool output vocabulary",
			raw:  `{"role":"tool","content":[{"type":"tool-result","toolCallId":"c","toolName":"t","output":{"type":"text","value":"r"}}]}`,
			want: DialectModelV5,
		},
		{
			name: "model v5 by tool input vocabulary",
			raw:  `{"role":"assistant","content":[{"type":"tool-call","toolCallId":"c","toolName":"t","input":{}}]}`,
			want: DialectModelV5,
		},
		{
			name: "core v4 by tool args vocabulary",
			raw:  `{"role":"assistant","content":[{"type":"tool-call","toolCallId":"c","toolName":"t","args":{}}]}`,
			want: DialectCoreV4,
		},
		{
			name: "core v4 by redacted reasoning",
			raw:  `{"role":"assistant","content":[{"type":"redacted-reasoning","data":"x"}]}`,
			want: DialectCoreV4,
		},
		{
			name: "model default newer",
			raw:  `{"role":"assistant","content":[{"type":"text","text":"x"}]}`,
			want: DialectModelV5,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var obj map[string]any
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &obj))
			require.Equal(t, tc.want, Detect(obj))
		})
	}
}

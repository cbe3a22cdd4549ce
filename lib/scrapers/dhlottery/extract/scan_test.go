package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, raw string) any {
	t.Helper()
	v, err := Decode([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestDecodeKeepsOrder(t *testing.T) {
	obj, err := DecodeObject([]byte(`{"b": 1, "a": {"z": true, "y": null}, "c": [1, "x"]}`))
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a", "c"}, obj.Keys)

	nested, ok := obj.Object("a")
	require.True(t, ok)
	require.Equal(t, []string{"z", "y"}, nested.Keys)
	require.Equal(t, "true", nested.String("z"))
	require.Equal(t, "1", obj.String("b"))
	require.Equal(t, "", obj.String("c"))

	_, err = DecodeObject([]byte(`[1, 2]`))
	require.Error(t, err)
	_, err = Decode([]byte(`{"a": 1} {"b": 2}`))
	require.Error(t, err)
}

func TestWalkOrder(t *testing.T) {
	payload := mustDecode(t, `{
		"id": "root",
		"first": {"id": "first", "inner": {"id": "inner"}},
		"list": [{"id": "list-0"}, [{"id": "list-1-0"}]],
		"last": {"id": "last"}
	}`)

	var visited []string
	Walk(payload, func(obj *Object) bool {
		visited = append(visited, obj.String("id"))
		return true
	})
	expect := []string{"root", "first", "inner", "list-0", "list-1-0", "last"}
	if diff := cmp.Diff(expect, visited); diff != "" {
		t.Fatalf("walk order mismatch (-want +got):\n%s", diff)
	}

	var stopped []string
	Walk(payload, func(obj *Object) bool {
		stopped = append(stopped, obj.String("id"))
		return obj.String("id") != "inner"
	})
	require.Equal(t, []string{"root", "first", "inner"}, stopped)
}

func TestCandidatesPriority(t *testing.T) {
	obj, err := DecodeObject([]byte(`{
		"myVrAccount": "111-2222-333-4444",
		"accountNo": "555-6666-777-8888",
		"FxVrAccountNo": "999-0000-111-2222",
		"note": "none"
	}`))
	require.NoError(t, err)

	cands := Candidates(obj, FieldAccount)
	var sources []string
	for _, c := range cands {
		sources = append(sources, c.Source)
	}
	require.Equal(t, []string{"FxVrAccountNo", "accountNo", "myVrAccount"}, sources)
	require.Equal(t, ConfidenceKnownKey, cands[0].Confidence)
	require.Equal(t, ConfidenceKeyToken, cands[2].Confidence)

	account, ok := Accept(FieldAccount, cands)
	require.True(t, ok)
	require.Equal(t, "999-0000-111-2222", account)
}

func TestFromPayload(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		expect  Fields
	}{
		{
			name: "direct user deposit info",
			payload: `{"data": {"userMndp": {
				"FxVrAccountNo": "7979-123-4567890",
				"VbankBankName": "케이뱅크",
				"VBankAccountName": "동행복권",
				"Amt": 15000
			}}}`,
			expect: Fields{
				Account: "7979-123-4567890",
				Amount:  "15,000원",
				Bank:    "케이뱅크",
				Holder:  "동행복권",
			},
		},
		{
			name: "known key rejected, falls back to token key",
			payload: `{"resVO": {
				"vbankNum": "1588-6450",
				"custVactNumber": "3333-01-2345678",
				"VbankBankCode": "090",
				"payAmt": "5000"
			}}`,
			expect: Fields{
				Account: "3333-01-2345678",
				Amount:  "5,000원",
				Bank:    "카카오뱅크",
			},
		},
		{
			name: "fields spread over several objects",
			payload: `{
				"header": {"resultCode": "SUCCESS", "tel": "02-1234-5678"},
				"items": [
					{"price": "10,000"},
					{"actNo": "100-2000-300-4000", "bankNm": "088"},
					{"depositorName": "홍길동"}
				]
			}`,
			expect: Fields{
				Account: "100-2000-300-4000",
				Amount:  "10,000원",
				Bank:    "신한은행",
				Holder:  "홍길동",
			},
		},
		{
			name: "stray value under bank key ignored",
			payload: `{"data": {
				"VbankBankName": "Y",
				"accountNo": "3333-01-2345678"
			}}`,
			expect: Fields{
				Account: "3333-01-2345678",
				Bank:    "케이뱅크",
			},
		},
		{
			name: "spaced bank name under bank key",
			payload: `{"data": {
				"VbankBankName": "카카오 뱅크",
				"accountNo": "3333-01-2345678"
			}}`,
			expect: Fields{
				Account: "3333-01-2345678",
				Bank:    "카카오뱅크",
			},
		},
		{
			name:    "nothing usable",
			payload: `{"resultCode": "FAIL", "resultMsg": "고객센터 1588-6450"}`,
			expect:  Fields{Bank: "케이뱅크"},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got := FromPayload(mustDecode(t, test.payload))
			if diff := cmp.Diff(test.expect, got); diff != "" {
				t.Fatalf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFieldsMerge(t *testing.T) {
	merged := Fields{Account: "123-4567-890-1234"}.Merge(Fields{
		Account: "999-9999-999-9999",
		Amount:  "1,000원",
	})
	require.Equal(t, Fields{Account: "123-4567-890-1234", Amount: "1,000원"}, merged)
	require.True(t, merged.HasAccount())
}

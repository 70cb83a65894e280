package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealtrail/mealtrail/internal/cipher"
	"github.com/mealtrail/mealtrail/internal/model"
)

const samplePayload = `{"resultData":{"rows":[
	{"summary":"持卡人消费","mername":"A","meraddr":"L1","txamt":500,"txdate":"2025-03-01 12:00:00","username":"小明"},
	{"summary":"水控POS消费流水","mername":"三区淋浴","meraddr":"浴室","txamt":200,"txdate":"2025-03-01 21:00:00","username":"小明"}
]}}`

func TestPayloadParser_Parse(t *testing.T) {
	p := &PayloadParser{}
	rows, err := p.Parse([]byte(samplePayload))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, "持卡人消费", rows[0].Summary)
	assert.Equal(t, "A", rows[0].MerName)
	assert.True(t, rows[0].HasMerName)
	assert.Equal(t, "L1", rows[0].MerAddr)
	assert.Equal(t, "500", rows[0].TxAmt.String())
	assert.Equal(t, "2025-03-01 12:00:00", rows[0].TxDate)
	assert.Equal(t, "小明", rows[0].Username)

	assert.Equal(t, 1, rows[1].Index)
	assert.Equal(t, "三区淋浴", rows[1].MerName)
}

func TestEncryptedParser_Parse(t *testing.T) {
	blob, err := cipher.Encrypt("0123456789abcdef", []byte(samplePayload))
	require.NoError(t, err)

	p := &EncryptedParser{}
	rows, err := p.Parse([]byte(blob + "\n"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestEncryptedParser_KeepsWhitespaceInKey(t *testing.T) {
	blob, err := cipher.Encrypt(" 0123456789abcd ", []byte(samplePayload))
	require.NoError(t, err)

	p := &EncryptedParser{}
	rows, err := p.Parse([]byte(blob + "\r\n"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestEncryptedParser_BadBlob(t *testing.T) {
	p := &EncryptedParser{}
	_, err := p.Parse([]byte("0123456789abcdef%%%"))
	require.Error(t, err)
	assert.ErrorIs(t, err, cipher.ErrDecryption)
	assert.Contains(t, err.Error(), "decrypting blob")
}

func TestDecodePayload_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		shape   bool
	}{
		{"top-level array", `[1,2]`, true},
		{"no resultData", `{"other":1}`, true},
		{"null resultData", `{"resultData":null}`, true},
		{"resultData is string", `{"resultData":"x"}`, true},
		{"no rows", `{"resultData":{}}`, true},
		{"rows is object", `{"resultData":{"rows":{}}}`, true},
		{"null rows", `{"resultData":{"rows":null}}`, false},
		{"empty rows", `{"resultData":{"rows":[]}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := DecodePayload([]byte(tt.payload))
			assert.Empty(t, rows)
			if tt.shape {
				assert.ErrorIs(t, err, ErrDataShape)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodePayload_InvalidJSON(t *testing.T) {
	_, err := DecodePayload([]byte(`{"resultData":`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDataShape))
	assert.Contains(t, err.Error(), "parsing payload")
}

func TestDecodePayload_MalformedRows(t *testing.T) {
	payload := `{"resultData":{"rows":[
		"not an object",
		{"summary":42,"mername":"A"},
		{"summary":"实体卡","txamt":"abc"},
		{"summary":"实体卡","txamt":"350"},
		{"summary":"实体卡","mername":null,"txamt":null}
	]}}`
	rows, err := DecodePayload([]byte(payload))
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.True(t, rows[0].Malformed)
	assert.True(t, rows[1].Malformed)
	assert.Equal(t, "", rows[1].Summary)
	assert.Equal(t, "A", rows[1].MerName)
	assert.True(t, rows[2].Malformed)
	assert.False(t, rows[2].HasTxAmt)
	assert.False(t, rows[3].Malformed)
	assert.Equal(t, "350", rows[3].TxAmt.String())
	assert.True(t, rows[4].HasMerName)
	assert.Equal(t, "", rows[4].MerName)
	assert.False(t, rows[4].HasTxAmt)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&PayloadParser{})
	p := r.Get("json")
	require.NotNil(t, p)
	assert.Equal(t, "json", p.Format())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&EncryptedParser{})
	assert.NotNil(t, r.Get("Encrypted"))
	assert.NotNil(t, r.Get("ENCRYPTED"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&PayloadParser{})
	assert.Panics(t, func() { r.Register(&PayloadParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get(FormatEncrypted))
	assert.NotNil(t, r.Get(FormatJSON))
}

func rawRow(index int, summary, mername, meraddr string, txamt int64, txdate string) model.RawRow {
	return model.RawRow{
		Index:      index,
		Summary:    summary,
		MerName:    mername,
		HasMerName: true,
		MerAddr:    meraddr,
		TxAmt:      dec(txamt),
		HasTxAmt:   true,
		TxDate:     txdate,
		Username:   "小明",
	}
}

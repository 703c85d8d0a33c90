package dnsmsg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildQuery(t *testing.T, opt bool) []byte {
	t.Helper()
	h := Header{ID: 0x1234, RD: true, QDCount: 1}
	if opt {
		h.ARCount = 1
	}
	buf := EncodeHeader(h)
	buf = append(buf, EncodeName("example.com.")...)
	buf = append(buf, 0x00, TypeA, 0x00, 0x01)
	if opt {
		buf = append(buf, 0x00)             // root name
		buf = append(buf, 0x00, 41)         // type OPT
		buf = append(buf, 0x04, 0xD0)       // class = payload size 1232
		buf = append(buf, 0x00, 0x00, 0x80, 0x00) // ttl: ext-rcode 0, version 0, DO bit set in flags
		buf = append(buf, 0x00, 0x00)       // rdlength 0
	}
	return buf
}

func TestParseQueryBasic(t *testing.T) {
	msg := buildQuery(t, false)
	q, err := ParseQuery(msg)
	require.NoError(t, err)
	require.Equal(t, "example.com.", q.Question.Name)
	require.Equal(t, uint16(TypeA), q.Question.Type)
	require.False(t, q.EDNS.Present)
}

func TestParseQueryWithOPT(t *testing.T) {
	msg := buildQuery(t, true)
	q, err := ParseQuery(msg)
	require.NoError(t, err)
	require.True(t, q.EDNS.Present)
	require.Equal(t, uint16(1232), q.EDNS.PayloadSize)
	require.True(t, q.EDNS.DOBit)
}

func TestParseQueryTooShort(t *testing.T) {
	_, err := ParseQuery(make([]byte, 4))
	require.ErrorIs(t, err, ErrMessageTooShort)
}

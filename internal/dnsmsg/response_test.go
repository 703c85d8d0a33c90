package dnsmsg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseEncodeSectionCounts(t *testing.T) {
	questionRaw := EncodeName("example.com.")
	questionRaw = append(questionRaw, 0x00, 0x01, 0x00, 0x01)

	rdata, err := EncodeA("10.0.0.1")
	require.NoError(t, err)

	resp := Response{
		Header: Header{ID: 0xBEEF, QR: true, AA: true, RD: true, RA: true},
		QuestionRaw: questionRaw,
		Answer: []RR{
			{Name: NamePointer, Type: TypeA, Class: 1, TTL: 60, RData: rdata},
		},
	}

	out := resp.Encode()
	require.Equal(t, byte(0xBE), out[0])
	require.Equal(t, byte(0xEF), out[1])

	h, err := DecodeHeader(out)
	require.NoError(t, err)
	require.True(t, h.QR)
	require.Equal(t, uint16(1), h.ANCount)
	require.Equal(t, uint16(0), h.NSCount)
}

func TestOPTRecordEchoesDOBit(t *testing.T) {
	opt := OPTRecord(EDNS{Present: true, PayloadSize: 1232, DOBit: true})
	require.Equal(t, uint16(1232), opt.Class)
	require.NotZero(t, opt.TTL&0x00008000)
	require.Zero(t, opt.TTL&0xFF000000, "EDNS version octet must stay 0")
}

package forwarder

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestForwardUDPFirstSuccess(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer conn.Close()

	go func() {
		buf := make([]byte, 512)
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		reply := append([]byte(nil), buf[:n]...)
		reply[2] |= 0x04 // upstream sets AA
		conn.WriteToUDP(reply, addr)
	}()

	f := New([]string{conn.LocalAddr().String()})
	query := []byte{0x00, 0x07, 0x01, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	reply, ok := f.Forward(query)
	require.True(t, ok)
	want := append([]byte(nil), query...)
	want[2] |= 0x04 // the upstream's AA bit comes back untouched
	require.Equal(t, want, reply)
	require.NotZero(t, reply[2]&0x04)
}

func TestForwardAllUpstreamsFail(t *testing.T) {
	f := New([]string{"127.0.0.1:1"})
	_, ok := f.Forward([]byte{0x00, 0x07, 0x01, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	require.False(t, ok)
}

func TestForwardTCPUsedWhenUDPUnavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(2 * time.Second))

		lenBuf := make([]byte, 2)
		if _, err := readFull(conn, lenBuf); err != nil {
			return
		}
		qlen := binary.BigEndian.Uint16(lenBuf)
		query := make([]byte, qlen)
		if _, err := readFull(conn, query); err != nil {
			return
		}

		resp := make([]byte, 2+len(query))
		binary.BigEndian.PutUint16(resp, uint16(len(query)))
		copy(resp[2:], query)
		conn.Write(resp)
	}()

	f := New([]string{ln.Addr().String()})
	query := make([]byte, 12)
	reply, ok := f.Forward(query)
	require.True(t, ok)
	require.Equal(t, query, reply)
}

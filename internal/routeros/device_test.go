package routeros

import (
	"fmt"
	"testing"

	ros "github.com/go-routeros/routeros/v3"
	"github.com/go-routeros/routeros/v3/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession records sentences and serves canned replies keyed on the
// first word.
type fakeSession struct {
	replies map[string]*ros.Reply
	errs    map[string]error
	calls   [][]string
	closed  bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		replies: map[string]*ros.Reply{},
		errs:    map[string]error{},
	}
}

func (f *fakeSession) Run(words ...string) (*ros.Reply, error) {
	f.calls = append(f.calls, words)
	if err := f.errs[words[0]]; err != nil {
		return nil, err
	}
	if r := f.replies[words[0]]; r != nil {
		return r, nil
	}
	return &ros.Reply{}, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func reply(maps ...map[string]string) *ros.Reply {
	r := &ros.Reply{}
	for _, m := range maps {
		r.Re = append(r.Re, &proto.Sentence{Word: "!re", Map: m})
	}
	return r
}

func TestPrimaryAddress(t *testing.T) {
	f := newFakeSession()
	f.replies["/ip/address/print"] = reply(
		map[string]string{"address": "203.0.113.7/30", "interface": "ether1"},
		map[string]string{"address": "10.0.0.2/24", "interface": "bridge1"},
	)
	d := NewDevice(f)

	ip, err := d.PrimaryAddress()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", ip)
}

func TestPrimaryAddressFallsBackToFirst(t *testing.T) {
	f := newFakeSession()
	f.replies["/ip/address/print"] = reply(
		map[string]string{"address": "203.0.113.7/30", "interface": "ether1"},
	)
	d := NewDevice(f)

	ip, err := d.PrimaryAddress()
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", ip)
}

func TestPrimaryAddressEmpty(t *testing.T) {
	f := newFakeSession()
	f.replies["/ip/address/print"] = reply()
	d := NewDevice(f)

	_, err := d.PrimaryAddress()
	assert.Error(t, err)
}

func TestFreeSpace(t *testing.T) {
	f := newFakeSession()
	f.replies["/system/resource/print"] = reply(
		map[string]string{"free-hdd-space": "6291456"},
	)
	d := NewDevice(f)

	free, err := d.FreeSpace()
	require.NoError(t, err)
	assert.Equal(t, int64(6291456), free)
}

func TestListFilesFiltersPrefix(t *testing.T) {
	f := newFakeSession()
	f.replies["/file/print"] = reply(
		map[string]string{"name": "svc_rs1_a.rsc"},
		map[string]string{"name": "svc_rs2_b.rsc"},
		map[string]string{"name": "autosupout.rif"},
	)
	d := NewDevice(f)

	names, err := d.ListFiles("svc_rs1_")
	require.NoError(t, err)
	assert.Equal(t, []string{"svc_rs1_a.rsc"}, names)
}

func TestUploadAndReadBack(t *testing.T) {
	f := newFakeSession()
	f.replies["/file/print"] = reply(
		map[string]string{"name": "svc_rs1_a.rsc", "contents": "/interface bridge add name=br0"},
	)
	d := NewDevice(f)

	require.NoError(t, d.UploadFile("svc_rs1_a.rsc", "/interface bridge add name=br0"))
	assert.Equal(t, [][]string{
		{"/file/add", "=name=svc_rs1_a.rsc"},
		{"/file/set", "=numbers=svc_rs1_a.rsc", "=contents=/interface bridge add name=br0"},
	}, f.calls)

	got, err := d.FileContents("svc_rs1_a.rsc")
	require.NoError(t, err)
	assert.Equal(t, "/interface bridge add name=br0", got)
}

func TestImportTrapSurfacesAsError(t *testing.T) {
	f := newFakeSession()
	f.errs["/import"] = fmt.Errorf("from RouterOS device: syntax error")
	d := NewDevice(f)

	assert.Error(t, d.Import("svc_rs1_a.rsc"))
}

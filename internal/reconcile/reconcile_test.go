package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/swarnabindu/prashan/internal/domain/registration"
)

func reg(serial, name, contact, district string) *registration.Registration {
	return &registration.Registration{SerialNo: serial, ChildName: name, ContactNumber: contact, District: district}
}

func serials(regs []*registration.Registration) []string {
	out := make([]string, len(regs))
	for i, r := range regs {
		out[i] = r.SerialNo
	}
	return out
}

func TestMerge_LocalWinsOnSerial(t *testing.T) {
	local := []*registration.Registration{reg("SP1", "आरव", "9841000000", "ललितपुर")}
	remote := []*registration.Registration{
		reg("SP1", "आरव श्रेष्ठ", "9800000000", "काठमाडौं"),
		reg("SP2", "सीता", "9811111111", "भक्तपुर"),
	}

	got := Merge(local, remote)
	if diff := cmp.Diff([]string{"SP1", "SP2"}, serials(got)); diff != "" {
		t.Fatalf("serials mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(local[0], got[0]); diff != "" {
		t.Errorf("expected local SP1 to be kept (-want +got):\n%s", diff)
	}
	if got[0].Synced {
		t.Error("local record must not be marked synced")
	}
	if !got[1].Synced {
		t.Error("expected appended remote record to be marked synced")
	}
}

func TestMerge_MatchesOnNameAndContact(t *testing.T) {
	local := []*registration.Registration{reg("", "आरव", "9841000000", "ललितपुर")}
	remote := []*registration.Registration{
		reg("SP9", "आरव", "9841000000", "ललितपुर"),
		reg("SP10", "आरव", "9800000000", "ललितपुर"),
	}
	got := Merge(local, remote)
	if diff := cmp.Diff([]string{"", "SP10"}, serials(got)); diff != "" {
		t.Errorf("serials mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_EmptySerialsDoNotMatch(t *testing.T) {
	local := []*registration.Registration{reg("", "आरव", "9841000000", "")}
	remote := []*registration.Registration{reg("", "सीता", "9811111111", "")}
	if got := Merge(local, remote); len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	local := []*registration.Registration{reg("SP1", "आरव", "9841000000", "")}
	remote := []*registration.Registration{reg("SP2", "सीता", "9811111111", "")}
	localBefore := local[0].Clone()
	remoteBefore := remote[0].Clone()

	got := Merge(local, remote)
	got[1].District = "changed"

	if diff := cmp.Diff(localBefore, local[0]); diff != "" {
		t.Errorf("local mutated:\n%s", diff)
	}
	if diff := cmp.Diff(remoteBefore, remote[0]); diff != "" {
		t.Errorf("remote mutated:\n%s", diff)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	local := []*registration.Registration{reg("SP1", "आरव", "9841000000", "")}
	remote := []*registration.Registration{
		reg("SP1", "आरव", "9841000000", "x"),
		reg("SP2", "सीता", "9811111111", ""),
		reg("", "गीता", "9822222222", ""),
	}
	once := Merge(local, remote)
	twice := Merge(local, once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("re-merge changed the result (-once +twice):\n%s", diff)
	}
}

func TestMerge_NilRemote(t *testing.T) {
	local := []*registration.Registration{reg("SP1", "आरव", "9841000000", "")}
	if diff := cmp.Diff(Merge(local, []*registration.Registration{}), Merge(local, nil)); diff != "" {
		t.Errorf("nil remote differs from empty remote:\n%s", diff)
	}
	if got := Merge(nil, nil); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

type provider struct {
	regs []*registration.Registration
	err  error
}

func (p provider) Registrations(context.Context) ([]*registration.Registration, error) {
	return p.regs, p.err
}

func TestService_Patients(t *testing.T) {
	local := provider{regs: []*registration.Registration{reg("SP1", "आरव", "9841000000", "")}}
	remote := provider{regs: []*registration.Registration{reg("SP2", "सीता", "9811111111", "")}}

	v, err := NewService(local, remote, zerolog.Nop()).Patients(context.Background())
	if err != nil {
		t.Fatalf("Patients: %v", err)
	}
	if v.Offline || v.RemoteErr != nil {
		t.Errorf("expected online view, got %+v", v)
	}
	if diff := cmp.Diff([]string{"SP1", "SP2"}, serials(v.Patients)); diff != "" {
		t.Errorf("serials mismatch:\n%s", diff)
	}
}

func TestService_RemoteFailureDegrades(t *testing.T) {
	local := provider{regs: []*registration.Registration{reg("SP1", "आरव", "9841000000", "")}}
	remote := provider{err: errors.New("connection refused")}

	v, err := NewService(local, remote, zerolog.Nop()).Patients(context.Background())
	if err != nil {
		t.Fatalf("remote failure must not be returned: %v", err)
	}
	if !v.Offline || v.RemoteErr == nil {
		t.Errorf("expected offline view, got %+v", v)
	}
	if diff := cmp.Diff([]string{"SP1"}, serials(v.Patients)); diff != "" {
		t.Errorf("serials mismatch:\n%s", diff)
	}
}

func TestService_NoRemote(t *testing.T) {
	local := provider{regs: []*registration.Registration{reg("SP1", "आरव", "9841000000", "")}}
	v, err := NewService(local, nil, zerolog.Nop()).Patients(context.Background())
	if err != nil || !v.Offline || len(v.Patients) != 1 {
		t.Errorf("unexpected view %+v err=%v", v, err)
	}
}

func TestService_LocalFailure(t *testing.T) {
	local := provider{err: errors.New("disk full")}
	remote := provider{}
	if _, err := NewService(local, remote, zerolog.Nop()).Patients(context.Background()); err == nil {
		t.Error("expected local failure to be returned")
	}
}

package result

import "testing"

func TestOkAndFail(t *testing.T) {
	ok := Ok(3)
	if !ok.IsOk() || ok.Value() != 3 || ok.Diagnostic() != "" {
		t.Errorf("Ok(3) = %+v", ok)
	}

	bad := Failf[int]("exit status %d", 1)
	if bad.IsOk() {
		t.Error("Failf should not be ok")
	}
	if bad.Diagnostic() != "exit status 1" {
		t.Errorf("Diagnostic = %q", bad.Diagnostic())
	}
	if bad.Value() != 0 {
		t.Errorf("Value = %d, want zero", bad.Value())
	}
}

package fields

import "testing"

func TestCleanMerchant(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"EXITO", "Exito"},
		{"RAPPI S.A.S.", "Rappi"},
		{"ALMACENES EXITO SA", "Almacenes Exito"},
		{"TIENDAS D1 SAS", "Tiendas D1"},
		{"COMERCIAL DEL VALLE LTDA", "Comercial del Valle"},
		{"*UBER *TRIP", "Uber Trip"},
		{"PANADERIA LA 80 NIT 900.123.456-7", "Panaderia la 80"},
		{"  farmatodo   ", "Farmatodo"},
		{"***", ""},
	}
	for _, tt := range tests {
		if got := CleanMerchant(tt.in); got != tt.want {
			t.Errorf("CleanMerchant(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"EXITO CALLE 80", CategorySupermarket, true},
		{"Olímpica", CategorySupermarket, true},
		{"UBER TRIP", CategoryTransport, true},
		{"NETFLIX.COM", CategoryEntertainment, true},
		{"Droguería Cruz Verde", CategoryHealth, true},
		{"MERCADO LIBRE", CategoryShopping, true},
		{"RETIRO CAJERO", CategoryATM, true},
		{"PARAISO", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectCategory(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("DetectCategory(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if got := CategoryOf("PARAISO"); got != CategoryOther {
		t.Errorf("CategoryOf fallback = %q", got)
	}
}

func TestExtractMerchant(t *testing.T) {
	m, ok := ExtractMerchant("EXITO S.A.")
	if !ok {
		t.Fatal("ExtractMerchant failed")
	}
	if m.Name != "Exito" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.Category == nil || *m.Category != CategorySupermarket {
		t.Errorf("Category = %v", m.Category)
	}
	if _, ok := ExtractMerchant(" ** "); ok {
		t.Error("empty merchant should fail")
	}
}

func TestExtractLabels(t *testing.T) {
	desc, ok := ExtractDescription("Transferencia recibida. Concepto: arriendo enero; Ref: 99")
	if !ok || desc != "arriendo enero" {
		t.Errorf("ExtractDescription = %q, %v", desc, ok)
	}
	ref, ok := ExtractReference("Pago exitoso. Comprobante: AB-12345")
	if !ok || ref != "AB-12345" {
		t.Errorf("ExtractReference = %q, %v", ref, ok)
	}
	ref, ok = ExtractReference("Aprobación No. 778899")
	if ok {
		t.Errorf("unlabelled number should not match, got %q", ref)
	}
	ref, ok = ExtractReference("Aprobacion No: 778899")
	if !ok || ref != "778899" {
		t.Errorf("ExtractReference = %q, %v", ref, ok)
	}
}

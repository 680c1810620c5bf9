package portview

import (
	"testing"

	"switchdeck/internal/models"
)

func connected(number int, name, mac, ip string) models.Port {
	p := models.Port{PortNumber: number}
	p.SetDevice(models.Device{Name: name, MAC: mac, IP: ip, Class: models.ClassComputer})
	return p
}

func free(number int) models.Port {
	return models.Port{PortNumber: number}
}

func numbers(ports []models.Port) []int {
	out := make([]int, len(ports))
	for i, p := range ports {
		out[i] = p.PortNumber
	}
	return out
}

func TestFilter(t *testing.T) {
	ports := []models.Port{
		free(1),
		connected(2, "Recepção", "00:1B:44:11:3A:B7", "192.168.1.100"),
	}

	tests := []struct {
		name string
		term string
		want []int
	}{
		{"empty term matches all", "", []int{1, 2}},
		{"device name, case-insensitive", "rece", []int{2}},
		{"device name with accent", "Recepção", []int{2}},
		{"port number as text", "2", []int{2}},
		{"MAC, case-insensitive", "1b:44", []int{2}},
		{"IP fragment", "168.1", []int{2}},
		{"no match", "printer", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := numbers(Filter(ports, tt.term))
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q) = ports %v, want %v", tt.term, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Filter(%q) = ports %v, want %v", tt.term, got, tt.want)
				}
			}
		})
	}
}

func TestFilterNumberMatchIsSubstring(t *testing.T) {
	ports := []models.Port{free(1), free(12), free(21)}
	got := numbers(Filter(ports, "1"))
	want := []int{1, 12, 21}
	if len(got) != len(want) {
		t.Fatalf("Filter(1) = %v, want %v", got, want)
	}
}

func TestBlocks(t *testing.T) {
	var ports []models.Port
	for i := 1; i <= 20; i++ {
		ports = append(ports, free(i))
	}

	blocks := Blocks(ports)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if len(blocks[0].Ports) != 16 || len(blocks[1].Ports) != 4 {
		t.Fatalf("block sizes = [%d, %d], want [16, 4]", len(blocks[0].Ports), len(blocks[1].Ports))
	}
	if blocks[0].First != 1 || blocks[0].Last != 16 {
		t.Errorf("block 0 spans %d-%d, want 1-16", blocks[0].First, blocks[0].Last)
	}
	if blocks[1].First != 17 || blocks[1].Last != 20 {
		t.Errorf("block 1 spans %d-%d, want 17-20", blocks[1].First, blocks[1].Last)
	}
}

func TestBlocksEmpty(t *testing.T) {
	if got := Blocks(nil); got != nil {
		t.Fatalf("Blocks(nil) = %v, want nil", got)
	}
}

func TestAggregate(t *testing.T) {
	var ports []models.Port
	for i := 1; i <= 10; i++ {
		if i <= 3 {
			ports = append(ports, connected(i, "host", "00:00:00:00:00:00", "10.0.0.1"))
		} else {
			ports = append(ports, free(i))
		}
	}

	s := Aggregate(ports)
	if s.Total != 10 || s.Connected != 3 || s.Free != 7 {
		t.Fatalf("Aggregate = %+v, want total 10 connected 3 free 7", s)
	}
	if s.Utilization != 30 {
		t.Fatalf("utilization = %d, want 30", s.Utilization)
	}
}

func TestAggregateNoPorts(t *testing.T) {
	s := Aggregate(nil)
	if s.Utilization != 0 {
		t.Fatalf("utilization of empty switch = %d, want 0", s.Utilization)
	}
}

func TestAggregateRounding(t *testing.T) {
	// 1 of 3 connected: 33.33 rounds to 33; 2 of 3: 66.67 rounds to 67.
	ports := []models.Port{connected(1, "a", "", ""), free(2), free(3)}
	if got := Aggregate(ports).Utilization; got != 33 {
		t.Errorf("1/3 utilization = %d, want 33", got)
	}
	ports[1].SetDevice(models.Device{Name: "b"})
	if got := Aggregate(ports).Utilization; got != 67 {
		t.Errorf("2/3 utilization = %d, want 67", got)
	}
}

func TestClassifyEmpty(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		filtered int
		term     string
		want     EmptyState
	}{
		{"ports passed filter", 10, 3, "x", NotEmpty},
		{"search matched nothing", 10, 0, "x", NoSearchResults},
		{"no ports at all", 0, 0, "", NoPortsConfigured},
		{"ports exist, empty search, nothing passed", 10, 0, "", NoMatches},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyEmpty(tt.total, tt.filtered, tt.term); got != tt.want {
				t.Fatalf("ClassifyEmpty(%d, %d, %q) = %d, want %d", tt.total, tt.filtered, tt.term, got, tt.want)
			}
		})
	}
}

package failures

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestEmptyLogWritesBothPartitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta", FileName)

	if err := New().Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	want := "{\n    \"data\": [],\n    \"cover\": []\n}\n"
	if string(data) != want {
		t.Errorf("Expected %q, got %q", want, string(data))
	}
}

func TestAddIsSortedAndDeduplicated(t *testing.T) {
	log := New()
	log.Add(Data, "9780000000003")
	log.Add(Data, "9780000000001")
	log.Add(Data, "9780000000003")
	log.Add(Cover, "9780000000002")

	encoded, err := json.Marshal(log)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"data":["9780000000001","9780000000003"],"cover":["9780000000002"]}`
	if string(encoded) != want {
		t.Errorf("Expected %s, got %s", want, encoded)
	}
}

func TestConcurrentAdd(t *testing.T) {
	log := New()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log.Add(Data, fmt.Sprintf("isbn-%02d", i%10))
		}(i)
	}
	wg.Wait()

	if got := log.Len(Data); got != 10 {
		t.Errorf("Expected 10 distinct entries, got %d", got)
	}
	if got := log.Len(Cover); got != 0 {
		t.Errorf("Expected no cover entries, got %d", got)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/usecases/dtos"
	"github.com/spf13/cobra"
)

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Send concurrent legacy transaction requests to a running adaptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			lpsID, _ := cmd.Flags().GetString("lps-id")
			workers, _ := cmd.Flags().GetInt("workers")
			terminals, _ := cmd.Flags().GetInt("terminals")
			duration, _ := cmd.Flags().GetDuration("duration")

			return simulate(url+"/iso8583/transactionRequests", lpsID, workers, terminals, duration)
		},
	}

	cmd.Flags().String("url", "http://localhost:8080", "Adaptor base URL")
	cmd.Flags().String("lps-id", "postillion", "Legacy switch id")
	cmd.Flags().IntP("workers", "w", 10, "Concurrent senders")
	cmd.Flags().Int("terminals", 20, "Distinct terminals, each a separate lps key")
	cmd.Flags().DurationP("duration", "d", 30*time.Second, "How long to send for")

	return cmd
}

func simulate(url, lpsID string, workers, terminals int, duration time.Duration) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	statuses := make(map[int]int)
	var failed int32

	client := &http.Client{Timeout: 10 * time.Second}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			start := time.Now()
			for time.Since(start) < duration {
				status, err := send(client, url, legacyRequest(lpsID, rand.Intn(terminals)))
				if err != nil {
					atomic.AddInt32(&failed, 1)
					fmt.Println("Error sending transaction request:", err)
				} else {
					mu.Lock()
					statuses[status]++
					mu.Unlock()
				}

				time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	for status, n := range statuses {
		fmt.Printf("%d %s: %d\n", status, http.StatusText(status), n)
	}
	fmt.Printf("Transport errors: %d\n", failed)
	return nil
}

func legacyRequest(lpsID string, terminal int) dtos.LegacyTransactionRequest {
	now := time.Now().UTC()
	return dtos.LegacyTransactionRequest{
		LpsID:                    lpsID,
		ProcessingCode:           "012000",
		Amount:                   fmt.Sprintf("%012d", (rand.Intn(50)+1)*1000),
		TransmissionDateTime:     now.Format("0102150405"),
		SystemTraceAuditNumber:   fmt.Sprintf("%06d", rand.Intn(1000000)),
		TransactionFee:           "D00000001",
		RetrievalReferenceNumber: fmt.Sprintf("%012d", now.UnixNano()%1e12),
		CardAcceptorTerminalID:   fmt.Sprintf("%08d", terminal),
		CardAcceptorID:           "ADAPTOR00000001",
		CurrencyCode:             "840",
		PayerAccount:             fmt.Sprintf("2783%07d", rand.Intn(10000000)),
	}
}

func send(client *http.Client, url string, request dtos.LegacyTransactionRequest) (int, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return 0, err
	}

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

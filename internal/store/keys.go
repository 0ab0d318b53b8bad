package store

import "fmt"

const (
	CounterJobs         = "jobs"
	CounterCampaigns    = "campaigns"
	CounterTransactions = "transactions"
	CounterPayments     = "payments"

	KindUser        = "user"
	KindJob         = "job"
	KindCampaign    = "campaign"
	KindTransaction = "tx"
	KindPayment     = "payment"

	KeyInitialized = "meta:initialized"
)

// Counters lists every counter seeded by Initialize.
var Counters = []string{CounterJobs, CounterCampaigns, CounterTransactions, CounterPayments}

func CounterKey(name string) string {
	return "counter:" + name
}

func AggregateKey(kind string, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func UserKey(address string) string {
	return KindUser + ":" + address
}

package main

import (
	"context"
	"fmt"
	"time"

	client "github.com/bhoriuchi/graphql-go-client"
	"github.com/bhoriuchi/graphql-go-client/logger"
	"github.com/bhoriuchi/graphql-go-client/operation"
	"github.com/bhoriuchi/graphql-go-client/policy"
	"github.com/bhoriuchi/graphql-go-client/result"
	"github.com/bhoriuchi/graphql-go-client/ws/graphqltransportws"
)

func main() {
	log := logger.NewLogWrapper(logger.NewSimpleLogFunc(logger.DebugLevel), nil)

	c, err := client.NewClient(
		client.WithURL("http://localhost:3000/graphql"),
		client.WithLogger(log),
		client.WithTimeoutPolicy(&policy.KeepAlive{
			Interval: 15 * time.Second,
			Timeout:  30 * time.Second,
		}),
	)
	if err != nil {
		log.WithError(err).Errorf("failed to create client")
		return
	}

	ctx := context.Background()

	// query through the cache
	entry := c.Query(ctx, &operation.Operation{
		Query: `query Hello { hello }`,
	})

	res := entry.Refresh().Result()
	if res.HasErrors() {
		log.Errorf("query failed: %s", res.FirstError().Message)
		return
	}
	fmt.Printf("query result: %+v\n", res.Data)

	// watch the entry for refreshed results
	unsubscribe := entry.Subscribe(func(res *result.Result) {
		fmt.Printf("entry updated: %+v\n", res)
	})
	defer unsubscribe()

	// stream a subscription
	session, err := c.Subscribe(ctx, &operation.Operation{
		Query: `subscription Time { time }`,
	}, client.SubscribeHandlers{
		OnData: func(res *result.Result) {
			fmt.Printf("subscription data: %+v\n", res.Data)
		},
		OnClose: func(reason graphqltransportws.CloseReason) {
			fmt.Printf("subscription closed: %s\n", reason)
		},
	})
	if err != nil {
		log.WithError(err).Errorf("failed to subscribe")
		return
	}

	time.Sleep(10 * time.Second)
	session.Abort(graphqltransportws.ReasonClient)
}

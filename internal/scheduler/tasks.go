package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskDistribute = "assignments.distribute"

const TaskRecycle = "assignments.recycle"

const TaskOrderSync = "orders.storefront_sync"

const TaskOrderSyncSweep = "orders.storefront_sync_sweep"

type DistributePayload struct {
	Reason string `json:"reason"`
}

type RecyclePayload struct {
	// AsOf is a YYYY-MM-DD business date; empty means today.
	AsOf string `json:"asOf,omitempty"`
}

type OrderSyncPayload struct {
	OrderID string `json:"orderId"`
}

func NewDistributeTask(payload DistributePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDistribute, data), nil
}

func ParseDistributePayload(task *asynq.Task) (DistributePayload, error) {
	var payload DistributePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DistributePayload{}, err
	}
	return payload, nil
}

func NewRecycleTask(payload RecyclePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecycle, data), nil
}

func ParseRecyclePayload(task *asynq.Task) (RecyclePayload, error) {
	var payload RecyclePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RecyclePayload{}, err
	}
	return payload, nil
}

func NewOrderSyncTask(payload OrderSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderSync, data), nil
}

func ParseOrderSyncPayload(task *asynq.Task) (OrderSyncPayload, error) {
	var payload OrderSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OrderSyncPayload{}, err
	}
	return payload, nil
}

func NewOrderSyncSweepTask() *asynq.Task {
	return asynq.NewTask(TaskOrderSyncSweep, nil)
}

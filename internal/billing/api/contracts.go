package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/roomio/roomio/internal/billing"
)

const (
	pathContracts = "/contract"
	pathContract  = "/contract/{id}"
)

// GetContract fetches one contract.
func (c *Client) GetContract(ctx context.Context, id string) (billing.Contract, error) {
	env, err := c.do(ctx, call{endpoint: "get_contract", method: http.MethodGet, path: pathContract, params: idParam(id)})
	if err != nil {
		return billing.Contract{}, err
	}
	var contract billing.Contract
	if err := json.Unmarshal(unwrap(env.Data, "contract"), &contract); err != nil {
		return billing.Contract{}, &Error{Kind: KindMalformed, Message: MsgMalformed, Err: err}
	}
	return contract, nil
}

// ListContracts fetches the caller's contracts.
func (c *Client) ListContracts(ctx context.Context) ([]billing.Contract, error) {
	env, err := c.do(ctx, call{endpoint: "list_contracts", method: http.MethodGet, path: pathContracts})
	if err != nil {
		return nil, err
	}
	var contracts []billing.Contract
	if raw := unwrap(env.Data, "contracts"); len(raw) > 0 {
		if err := json.Unmarshal(raw, &contracts); err != nil {
			return nil, &Error{Kind: KindMalformed, Message: MsgMalformed, Err: err}
		}
	}
	return contracts, nil
}

package v1

import (
	"context"
	"errors"
	"fmt"

	cntextv1 "github.com/RXLU5x/translate-image-text-cloud/api/cntext/v1"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
)

func (r *V1) SignIn(ctx context.Context, in *cntextv1.SignInRequest) (*cntextv1.SignInReply, error) {
	id, err := r.sessions.SignIn(ctx, in.Username)
	if err != nil {
		var msg string
		if errors.Is(err, errs.ErrAccountNotFound) {
			msg = fmt.Sprintf("There is no account whose username is %s", in.Username)
		}

		return nil, r.toStatus(err, "SignIn", msg)
	}

	return &cntextv1.SignInReply{SessionID: id}, nil
}

func (r *V1) SignOut(ctx context.Context, in *cntextv1.SignOutRequest) (*cntextv1.SignOutReply, error) {
	err := r.sessions.SignOut(ctx, in.SessionID)
	if err != nil {
		var msg string
		if errors.Is(err, errs.ErrSessionNotFound) {
			msg = fmt.Sprintf("There is no session whose id is %s", in.SessionID)
		}

		return nil, r.toStatus(err, "SignOut", msg)
	}

	return &cntextv1.SignOutReply{}, nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSNSPublisher_Publish(t *testing.T) {
	client := &fakeSNS{}
	pub := NewSNSPublisher(client, "arn:aws:sns:ap-south-1:123456789012:asha-analytics")

	ev := New(SessionEnd, "session-9", nil)
	require.NoError(t, pub.Publish(context.Background(), ev))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:ap-south-1:123456789012:asha-analytics", aws.ToString(in.TopicArn))
	assert.Equal(t, SessionEnd, aws.ToString(in.MessageAttributes["event"].StringValue))

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &decoded))
	assert.Equal(t, "session-9", decoded.SessionID)
	assert.NoError(t, pub.Close())
}

func TestSNSPublisher_WrapsError(t *testing.T) {
	boom := errors.New("throttled")
	pub := NewSNSPublisher(&fakeSNS{err: boom}, "arn")

	err := pub.Publish(context.Background(), New(APIError, "s", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "publish api_error")
}

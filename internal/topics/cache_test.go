package topics

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type MockTopicCreator struct {
	mock.Mock
}

func (m *MockTopicCreator) CreateTopic(ctx context.Context, params *sns.CreateTopicInput, optFns ...func(*sns.Options)) (*sns.CreateTopicOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.CreateTopicOutput), args.Error(1)
}

func TestResolveMemoizes(t *testing.T) {
	creator := new(MockTopicCreator)
	creator.On("CreateTopic", mock.Anything, mock.MatchedBy(func(in *sns.CreateTopicInput) bool {
		return *in.Name == "turk-T1"
	})).Return(&sns.CreateTopicOutput{TopicArn: aws.String("arn:aws:sns:us-east-1:1:turk-T1")}, nil).Once()

	cache := NewCache(creator, "turk")
	first, err := cache.Resolve(context.Background(), "T1")
	require.NoError(t, err)

	// second resolution returns the identical ARN with no second create call
	second, err := cache.Resolve(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	creator.AssertNumberOfCalls(t, "CreateTopic", 1)
}

func TestResolveDistinctTypes(t *testing.T) {
	creator := new(MockTopicCreator)
	creator.On("CreateTopic", mock.Anything, mock.Anything).Return(
		&sns.CreateTopicOutput{TopicArn: aws.String("arn:1")}, nil).Once()
	creator.On("CreateTopic", mock.Anything, mock.Anything).Return(
		&sns.CreateTopicOutput{TopicArn: aws.String("arn:2")}, nil).Once()

	cache := NewCache(creator, "turk")
	a, err := cache.Resolve(context.Background(), "T1")
	require.NoError(t, err)
	b, err := cache.Resolve(context.Background(), "T2")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestResolveFailureIsNotMemoized(t *testing.T) {
	creator := new(MockTopicCreator)
	creator.On("CreateTopic", mock.Anything, mock.Anything).Return(nil, errors.New("sns down")).Once()
	creator.On("CreateTopic", mock.Anything, mock.Anything).Return(
		&sns.CreateTopicOutput{TopicArn: aws.String("arn:ok")}, nil).Once()

	cache := NewCache(creator, "turk")
	_, err := cache.Resolve(context.Background(), "T1")
	require.Error(t, err)

	arn, err := cache.Resolve(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "arn:ok", arn)
}

func TestResolveConcurrentFirstResolution(t *testing.T) {
	creator := new(MockTopicCreator)
	creator.On("CreateTopic", mock.Anything, mock.Anything).Return(
		&sns.CreateTopicOutput{TopicArn: aws.String("arn:once")}, nil).Once()

	cache := NewCache(creator, "turk")
	var wg sync.WaitGroup
	arns := make([]string, 8)
	for i := range arns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			arn, err := cache.Resolve(context.Background(), "T1")
			assert.NoError(t, err)
			arns[i] = arn
		}()
	}
	wg.Wait()

	for _, arn := range arns {
		assert.Equal(t, "arn:once", arn)
	}
	creator.AssertNumberOfCalls(t, "CreateTopic", 1)
}

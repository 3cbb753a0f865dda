package openai

import (
	"sync"

	"github.com/casualjim/mobileuse/provider"
	"github.com/casualjim/mobileuse/provider/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	ChatModelGPT4o      = openai.ChatModelGPT4o
	ChatModelGPT4oMini  = openai.ChatModelGPT4oMini
	ChatModelGPT4_1     = openai.ChatModelGPT4_1
	ChatModelGPT4_1Mini = openai.ChatModelGPT4_1Mini
)

func GPT4o(opts ...option.RequestOption) provider.Model {
	return Model(ChatModelGPT4o, opts...)
}

func GPT4oMini(opts ...option.RequestOption) provider.Model {
	return Model(ChatModelGPT4oMini, opts...)
}

func GPT41(opts ...option.RequestOption) provider.Model {
	return Model(ChatModelGPT4_1, opts...)
}

// Model returns the registered model with this name, creating it on first use.
// Request options only take effect for the call that creates the model.
func Model(name string, opts ...option.RequestOption) provider.Model {
	return models.GetOrAdd(name, func() provider.Model {
		return &model{
			name: name,
			opts: opts,
		}
	})
}

var _ provider.Model = (*model)(nil)

type model struct {
	name string
	opts []option.RequestOption

	prov     provider.Provider
	provOnce sync.Once
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Provider() provider.Provider {
	m.provOnce.Do(func() {
		m.prov = New(m.opts...)
	})
	return m.prov
}

package services

import (
	"fmt"
	"strings"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"
)

// BrandConfig 单个品牌服务台的参数化配置。
// 所有品牌共用同一套聊天/知识库逻辑，差异全部收敛到这里。
type BrandConfig struct {
	Key            string // 路由键，如 "ivoomi"
	Name           string // 展示名，如 "IVOOMI"
	Persona        string // 系统提示里的角色描述
	KBHeader       string // 知识库段落标题
	Instructions   []string
	WelcomeMessage string
	ImageAware     bool // 知识库条目是否携带 [HAS IMAGE] 标记
	Protocols      []models.Guideline
}

// Brands 品牌注册表，迁移时据此播种默认协议
var Brands = []BrandConfig{
	{
		Key:      "ivoomi",
		Name:     "IVOOMI",
		Persona:  `You are an expert AI Support Agent for the brand "IVOOMI".`,
		KBHeader: "INTERNAL KNOWLEDGE BASE (PROTOCOLS & POLICIES):",
		Instructions: []string{
			"If the user asks about a topic found in the Knowledge Base, STRICTLY follow the steps or rules provided there.",
			`If the info is not in the KB, use general expert knowledge about smartphones/electronics but mention "Standard industry practice" vs "Official Protocol".`,
			"Format your response clearly with bullet points if explaining a process.",
			"Be helpful, professional, and concise.",
		},
		WelcomeMessage: "Hello! I am your IVOOMI Brand Specialist. I have access to your internal protocols. Ask me about repairs, warranty policies, or technical specs.",
		ImageAware:     false,
		Protocols: []models.Guideline{
			{
				Brand:    "ivoomi",
				Title:    "Standard Screen Replacement",
				Category: "Repair",
				Content:  "1. Heat gun at 80°C for 2 mins.\n2. Use plastic pry tool only (No metal).\n3. Disconnect battery first.\n4. Test new display before gluing.\n5. Use B-7000 glue, clamp for 30 mins.",
			},
			{
				Brand:    "ivoomi",
				Title:    "Warranty Policy - Battery",
				Category: "Policy",
				Content:  "Ivoomi batteries carry a 6-month warranty. Bulging is covered. Water damage voids warranty immediately. Bill required.",
			},
		},
	},
	{
		Key:      "elista",
		Name:     "ELISTA",
		Persona:  `You are an expert AI Service Engineer for the brand "ELISTA" (known for TVs, Audio, IT Accessories).`,
		KBHeader: "INTERNAL KNOWLEDGE BASE:",
		Instructions: []string{
			"Prioritize information from the Internal Knowledge Base.",
			`If a protocol mentions an image, tell the user "Please check the attached diagram in the Protocol Library for visual aid."`,
			"Structure your answers with clear headings and steps (Pipeline format).",
			`If the info is missing, provide general electronics repair advice but flag it as "General Suggestion".`,
		},
		WelcomeMessage: "Welcome to the ELISTA Service Hub. I can help you with repair protocols, LED/Smart TV troubleshooting, and warranty validation. I can also reference diagrams from your library.",
		ImageAware:     true,
		Protocols: []models.Guideline{
			{
				Brand:    "elista",
				Title:    "LED TV Power Supply Check",
				Category: "Troubleshoot",
				Content:  "1. Check Fuse F1.\n2. Verify 12V DC output at bridge rectifier.\n3. If 0V, check MOSFET Q201.\n4. Ensure standby voltage is 5V.",
			},
		},
	},
}

// BrandByKey 按路由键查找品牌配置
func BrandByKey(key string) (*BrandConfig, bool) {
	for i := range Brands {
		if Brands[i].Key == key {
			return &Brands[i], true
		}
	}
	return nil, false
}

// KBContext 将品牌协议渲染为提示词里的知识库段落
func (b *BrandConfig) KBContext(protocols []models.Guideline) string {
	entries := make([]string, 0, len(protocols))
	for _, p := range protocols {
		entry := fmt.Sprintf("[CATEGORY: %s] TITLE: %s\nCONTENT: %s",
			strings.ToUpper(p.Category), p.Title, p.Content)
		if b.ImageAware {
			hasImage := "No"
			if p.ImageURL != "" {
				hasImage = "Yes"
			}
			entry += fmt.Sprintf("\n[HAS IMAGE: %s]", hasImage)
		}
		entries = append(entries, entry)
	}
	return strings.Join(entries, "\n\n")
}

// SystemPrompt 组装品牌聊天系统提示
func (b *BrandConfig) SystemPrompt(kbContext string) string {
	var sb strings.Builder
	sb.WriteString(b.Persona)
	sb.WriteString("\nYour goal is to assist technicians by referencing the company's specific INTERNAL KNOWLEDGE BASE.\n\n")
	sb.WriteString(b.KBHeader)
	sb.WriteString("\n")
	sb.WriteString(kbContext)
	sb.WriteString("\n\nInstructions:\n")
	for i, inst := range b.Instructions {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, inst))
	}
	return sb.String()
}

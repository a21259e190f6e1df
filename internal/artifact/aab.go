package artifact

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	// aabManifestPath is where bundletool places the proto-encoded manifest
	// of the base module inside an Android App Bundle.
	aabManifestPath = "base/manifest/AndroidManifest.xml"

	// aabNativeLibraryPrefix is where bundles keep per-ABI shared objects.
	aabNativeLibraryPrefix = "base/lib/"

	// androidNamespaceURI qualifies attributes from the android: XML namespace.
	androidNamespaceURI = "http://schemas.android.com/apk/res/android"
)

// Field numbers of aapt2's Resources.proto messages. Only the subset needed
// to walk XmlNode trees and read attribute values is listed.
const (
	xmlNodeElementField = 1

	xmlElementNameField      = 3
	xmlElementAttributeField = 4
	xmlElementChildField     = 5

	xmlAttributeNamespaceField    = 1
	xmlAttributeNameField         = 2
	xmlAttributeValueField        = 3
	xmlAttributeCompiledItemField = 6

	itemPrimitiveField           = 7
	primitiveIntDecimalField     = 6
	primitiveIntHexadecimalField = 7
)

// extractAAB parses the proto-encoded manifest of an Android App Bundle.
func extractAAB(path string) (*Metadata, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ValidationError{Path: path, Reason: "not a readable bundle", Err: err}
	}
	defer reader.Close()

	raw, err := readBundleManifest(&reader.Reader)
	if err != nil {
		return nil, &ValidationError{Path: path, Reason: "read bundle manifest", Err: err}
	}

	root, err := parseXMLNode(raw)
	if err != nil {
		return nil, &ValidationError{Path: path, Reason: "decode bundle manifest", Err: err}
	}

	if root == nil || root.name != "manifest" {
		return nil, &ValidationError{Path: path, Reason: "bundle manifest has no <manifest> root"}
	}

	packageName, ok := root.attribute("", "package")
	if !ok || packageName.stringValue == "" {
		return nil, &ValidationError{Path: path, Reason: "bundle manifest has no package name"}
	}

	versionCode, ok := root.attribute(androidNamespaceURI, "versionCode")
	if !ok {
		return nil, &ValidationError{Path: path, Reason: "bundle manifest has no version code"}
	}

	code, ok := versionCode.intValue()
	if !ok {
		return nil, &ValidationError{
			Path:   path,
			Reason: fmt.Sprintf("version code %q is not a number", versionCode.stringValue),
		}
	}

	metadata := &Metadata{
		PackageName:  packageName.stringValue,
		VersionCode:  code,
		Architecture: nativeArchitectures(&reader.Reader, aabNativeLibraryPrefix),
	}

	if versionName, ok := root.attribute(androidNamespaceURI, "versionName"); ok {
		metadata.VersionName = versionName.stringValue
	}

	if usesSDK := root.child("uses-sdk"); usesSDK != nil {
		if minSDK, ok := usesSDK.attribute(androidNamespaceURI, "minSdkVersion"); ok {
			if level, ok := minSDK.intValue(); ok {
				metadata.APILevel = int32(level)
			}
		}
	}

	return metadata, nil
}

// readBundleManifest returns the raw proto bytes of the base module manifest.
func readBundleManifest(reader *zip.Reader) ([]byte, error) {
	file, err := reader.Open(aabManifestPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", aabManifestPath, err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", aabManifestPath, err)
	}

	return raw, nil
}

// xmlElement is a decoded aapt2 XmlElement, keeping only what extraction needs.
type xmlElement struct {
	name       string
	attributes []xmlAttribute
	children   []xmlElement
}

// xmlAttribute is a decoded aapt2 XmlAttribute.
type xmlAttribute struct {
	namespaceURI string
	name         string
	stringValue  string
	compiledInt  int64
	hasCompiled  bool
}

// attribute finds an attribute by namespace and name.
func (e *xmlElement) attribute(namespaceURI, name string) (xmlAttribute, bool) {
	for _, attr := range e.attributes {
		if attr.namespaceURI == namespaceURI && attr.name == name {
			return attr, true
		}
	}

	return xmlAttribute{}, false
}

// child finds the first direct child element with the given name.
func (e *xmlElement) child(name string) *xmlElement {
	for i := range e.children {
		if e.children[i].name == name {
			return &e.children[i]
		}
	}

	return nil
}

// intValue returns the attribute value as an integer, preferring the
// aapt2-compiled primitive over the raw string form.
func (a xmlAttribute) intValue() (int64, bool) {
	if a.hasCompiled {
		return a.compiledInt, true
	}

	value, err := strconv.ParseInt(a.stringValue, 10, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

var errTruncatedProto = errors.New("truncated protobuf message")

// parseXMLNode decodes an aapt2 XmlNode, returning its element
// (nil for text nodes).
func parseXMLNode(data []byte) (*xmlElement, error) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, errTruncatedProto
		}

		data = data[n:]

		if num == xmlNodeElementField && typ == protowire.BytesType {
			raw, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, errTruncatedProto
			}

			return parseXMLElement(raw)
		}

		m := protowire.ConsumeFieldValue(num, typ, data)
		if m < 0 {
			return nil, errTruncatedProto
		}

		data = data[m:]
	}

	return nil, nil
}

// parseXMLElement decodes an aapt2 XmlElement and, recursively, its children.
func parseXMLElement(data []byte) (*xmlElement, error) {
	element := new(xmlElement)

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, errTruncatedProto
		}

		data = data[n:]

		if typ != protowire.BytesType {
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, errTruncatedProto
			}

			data = data[m:]

			continue
		}

		raw, m := protowire.ConsumeBytes(data)
		if m < 0 {
			return nil, errTruncatedProto
		}

		data = data[m:]

		switch num {
		case xmlElementNameField:
			element.name = string(raw)
		case xmlElementAttributeField:
			attr, err := parseXMLAttribute(raw)
			if err != nil {
				return nil, err
			}

			element.attributes = append(element.attributes, attr)
		case xmlElementChildField:
			childElement, err := parseXMLNode(raw)
			if err != nil {
				return nil, err
			}

			if childElement != nil {
				element.children = append(element.children, *childElement)
			}
		}
	}

	return element, nil
}

// parseXMLAttribute decodes an aapt2 XmlAttribute.
func parseXMLAttribute(data []byte) (xmlAttribute, error) {
	var attr xmlAttribute

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return attr, errTruncatedProto
		}

		data = data[n:]

		if typ != protowire.BytesType {
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return attr, errTruncatedProto
			}

			data = data[m:]

			continue
		}

		raw, m := protowire.ConsumeBytes(data)
		if m < 0 {
			return attr, errTruncatedProto
		}

		data = data[m:]

		switch num {
		case xmlAttributeNamespaceField:
			attr.namespaceURI = string(raw)
		case xmlAttributeNameField:
			attr.name = string(raw)
		case xmlAttributeValueField:
			attr.stringValue = string(raw)
		case xmlAttributeCompiledItemField:
			if value, ok := itemIntValue(raw); ok {
				attr.compiledInt = value
				attr.hasCompiled = true
			}
		}
	}

	return attr, nil
}

// itemIntValue digs an integer primitive out of an aapt2 Item message.
func itemIntValue(data []byte) (int64, bool) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return 0, false
		}

		data = data[n:]

		if num == itemPrimitiveField && typ == protowire.BytesType {
			raw, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return 0, false
			}

			return primitiveIntValue(raw)
		}

		m := protowire.ConsumeFieldValue(num, typ, data)
		if m < 0 {
			return 0, false
		}

		data = data[m:]
	}

	return 0, false
}

// primitiveIntValue reads the decimal or hexadecimal integer variant
// of an aapt2 Primitive message.
func primitiveIntValue(data []byte) (int64, bool) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return 0, false
		}

		data = data[n:]

		if typ == protowire.VarintType &&
			(num == primitiveIntDecimalField || num == primitiveIntHexadecimalField) {
			value, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return 0, false
			}

			return int64(int32(value)), true
		}

		m := protowire.ConsumeFieldValue(num, typ, data)
		if m < 0 {
			return 0, false
		}

		data = data[m:]
	}

	return 0, false
}

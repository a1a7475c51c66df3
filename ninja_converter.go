package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/ninja_converter/config"
	"github.com/mogaika/ninja_converter/convert"
	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/utils"
	"github.com/mogaika/ninja_converter/utils/fbxbuilder"
	"github.com/mogaika/ninja_converter/utils/gltfutils"
	"github.com/mogaika/ninja_converter/utils/logger"
	"github.com/mogaika/ninja_converter/web"
)

type options struct {
	importPath string
	exportPath string
	outPath    string
	node       string
	dump       bool
}

func loadTextures(cfg *config.Config) ([]string, error) {
	if cfg.Convert.TextureList == "" {
		return nil, nil
	}
	cm, err := cfg.Convert.Charmap()
	if err != nil {
		return nil, err
	}
	return utils.LoadTextureList(cfg.Convert.TextureList, cm)
}

func replaceExt(path string, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func runExport(o *options, textures []string, log *zap.Logger) error {
	obj, err := ninja.Load(o.exportPath)
	if err != nil {
		return err
	}
	sc, err := convert.Export(obj, convert.ExportOptions{Textures: textures, Logger: log})
	if err != nil {
		return errors.Wrapf(err, "export %q", o.exportPath)
	}
	if o.dump {
		utils.Dump(os.Stdout, sc)
	}

	out := o.outPath
	if out == "" {
		out = replaceExt(o.exportPath, ".glb")
	}
	switch ext := strings.ToLower(filepath.Ext(out)); ext {
	case ".glb", ".gltf":
		doc, err := gltfutils.ExportScene(sc)
		if err != nil {
			return err
		}
		if err := gltfutils.Save(doc, out); err != nil {
			return err
		}
	case ".fbx", ".zip":
		fbxName := filepath.Base(replaceExt(out, ".fbx"))
		f, err := fbxbuilder.ExportSceneDefault(sc, fbxName, log)
		if err != nil {
			return err
		}
		file, err := os.Create(out)
		if err != nil {
			return errors.Wrapf(err, "create %q", out)
		}
		defer file.Close()
		if ext == ".fbx" {
			err = f.Write(file)
		} else {
			attachTextures(f, filepath.Dir(o.exportPath), log)
			err = f.WriteZip(file, fbxName)
		}
		if err != nil {
			return errors.Wrapf(err, "write %q", out)
		}
		if err := file.Close(); err != nil {
			return errors.Wrapf(err, "close %q", out)
		}
	default:
		return errors.Errorf("unknown output type %q", ext)
	}
	log.Info("exported", zap.String("model", o.exportPath), zap.String("out", out),
		zap.Int("meshes", len(sc.Meshes)), zap.Int("materials", len(sc.Materials)))
	return nil
}

// attachTextures packs texture files found next to the model into the zip.
func attachTextures(f *fbxbuilder.FBXBuilder, dir string, log *zap.Logger) {
	for _, p := range f.TexturePaths() {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
		if err != nil {
			log.Warn("texture not attached", zap.String("texture", p), zap.Error(err))
			continue
		}
		f.AddExportFile(filepath.Base(p), data)
	}
}

func runImport(o *options, format config.ModelFormat, textures []string, log *zap.Logger) error {
	var doc, err = gltfutils.Open(o.importPath)
	if err != nil {
		return err
	}
	sc, err := gltfutils.ImportScene(doc)
	if err != nil {
		return errors.Wrapf(err, "read scene %q", o.importPath)
	}

	var node *scene.Node
	if o.node != "" {
		if node = sc.FindNode(o.node); node == nil {
			return errors.Errorf("node %q not found in %q", o.node, o.importPath)
		}
	}
	obj, err := convert.Import(sc, node, convert.ImportOptions{
		Format:   format,
		Textures: textures,
		Logger:   log,
	})
	if err != nil {
		return errors.Wrapf(err, "import %q", o.importPath)
	}
	if o.dump {
		utils.Dump(os.Stdout, obj)
	}

	out := o.outPath
	if out == "" {
		out = replaceExt(o.importPath, ".json")
	}
	if err := ninja.Save(out, obj); err != nil {
		return err
	}
	log.Info("imported", zap.String("scene", o.importPath), zap.String("out", out),
		zap.Stringer("format", format), zap.Int("objects", obj.Count()))
	return nil
}

func main() {
	var cfgPath, format, textureList, addr, logLevel, logFile, encoding string
	var startWeb bool
	o := &options{}
	flag.StringVar(&cfgPath, "config", "", "Path to yaml config")
	flag.StringVar(&o.importPath, "import", "", "Scene (gltf, glb) to convert into model file")
	flag.StringVar(&o.exportPath, "export", "", "Model file to convert into scene")
	flag.StringVar(&o.outPath, "out", "", "Output path. Export picks type by extension: .glb .gltf .fbx .zip")
	flag.StringVar(&o.node, "node", "", "Import only subtree of this scene node")
	flag.BoolVar(&o.dump, "dump", false, "Dump converted result to stdout")
	flag.StringVar(&format, "format", "", "Import model format: basic, basicdx, chunk, gc")
	flag.StringVar(&textureList, "textures", "", "Texture list file, one name per line")
	flag.StringVar(&encoding, "encoding", "", "Charmap of texture list file")
	flag.BoolVar(&startWeb, "web", false, "Start conversion server")
	flag.StringVar(&addr, "i", "", "Address of server")
	flag.StringVar(&logLevel, "loglevel", "", "debug, info, warn, error")
	flag.StringVar(&logFile, "logfile", "", "Rotated log file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if format != "" {
		if cfg.Convert.Format, err = config.ParseModelFormat(format); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if textureList != "" {
		cfg.Convert.TextureList = textureList
	}
	if encoding != "" {
		cfg.Convert.Encoding = encoding
	}
	if addr != "" {
		cfg.Web.Address = addr
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFile != "" {
		cfg.Logging.LogFile = logFile
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	defer log.Sync()
	zap.ReplaceGlobals(log)

	textures, err := loadTextures(cfg)
	if err != nil {
		log.Fatal("Failed to load texture list", zap.Error(err))
	}

	switch {
	case startWeb:
		err = web.StartServer(cfg.Web.Address, cfg, textures, log)
	case o.importPath != "":
		err = runImport(o, cfg.Convert.Format, textures, log)
	case o.exportPath != "":
		err = runExport(o, textures, log)
	default:
		flag.PrintDefaults()
		return
	}
	if err != nil {
		log.Fatal("Conversion failed", zap.Error(err))
	}
}
